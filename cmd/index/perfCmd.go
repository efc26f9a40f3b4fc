package index

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/dIndex/cmd/util"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/ValentinKolb/dIndex/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dIndex servers",
		Long:    "Runs every benchmark with the configured number of threads for the configured number of operations and prints latency statistics.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfBucket           = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOps              = 10000
	perfSkip             = make([]string, 0)

	// perfTests lists the benchmarks in the order they run
	perfTests = []perfTest{
		{name: "put", prepare: nil, op: perfPut},
		{name: "put-large", prepare: nil, op: perfPutLarge},
		{name: "fetch", prepare: perfFill, op: perfFetch},
		{name: "query-exact", prepare: perfFill, op: perfQueryExact},
		{name: "query-range", prepare: perfFill, op: perfQueryRange},
		{name: "query-page", prepare: perfFill, op: perfQueryPage},
		{name: "query-terms", prepare: perfFill, op: perfQueryTerms},
		{name: "stream", prepare: perfFill, op: perfStream},
		{name: "delete", prepare: perfFill, op: perfDelete},
		{name: "mixed", prepare: perfFill, op: perfMixed},
	}
)

// perfTest is a single benchmark. op is called with a running counter per thread.
type perfTest struct {
	name    string
	prepare func() error
	op      func(counter int) error
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,stream)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for dIndex servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Operations: %d\n", perfNumThreads, perfOps)
	fmt.Println()

	fmt.Println("starting tests...")

	registry := gometrics.NewRegistry()
	for _, test := range perfTests {
		if shouldSkip(test.name) {
			fmt.Printf("%-20sskipped\n", test.name)
			continue
		}

		timer := gometrics.GetOrRegisterTimer(test.name, registry)
		errCount := gometrics.GetOrRegisterCounter(test.name+".errors", registry)
		if err := runBenchmark(test, timer, errCount); err != nil {
			return fmt.Errorf("benchmark %s failed: %w", test.name, err)
		}
		printResult(test.name, timer.Snapshot(), errCount.Count())
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, registry, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runBenchmark spreads perfOps calls of test.op over perfNumThreads goroutines
// and records the latency of every call. The test data is removed afterwards.
func runBenchmark(test perfTest, timer gometrics.Timer, errCount gometrics.Counter) error {
	if test.prepare != nil {
		if err := test.prepare(); err != nil {
			return err
		}
	}
	defer perfCleanup()

	var wg sync.WaitGroup
	opsPerThread := max(perfOps/perfNumThreads, 1)
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			for i := 0; i < opsPerThread; i++ {
				start := time.Now()
				err := test.op(thread*opsPerThread + i)
				timer.UpdateSince(start)
				if err != nil {
					errCount.Inc(1)
					log.Printf("(%s) - error: %v\n", test.name, err)
				}
			}
		}(t)
	}
	wg.Wait()
	return nil
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

func perfPut(counter int) error {
	_, err := rpcStore.Put(perfBucket, perfKey(counter), []byte("test"), perfEntries(counter))
	return err
}

func perfPutLarge(counter int) error {
	_, err := rpcStore.Put(perfBucket, perfKey(counter), make([]byte, perfLargeValueSizeKB*1024), perfEntries(counter))
	return err
}

func perfFetch(counter int) error {
	_, err := rpcStore.FetchValue(perfBucket, perfKey(counter), index.FetchOptions{IgnoreMissing: true})
	return err
}

func perfQueryExact(counter int) error {
	_, err := index.NewQuery(rpcStore, perfBucket, "n_int", index.Exact(int64(counter%perfKeySpread)), index.Options{}).Keys()
	return err
}

func perfQueryRange(counter int) error {
	_, err := index.NewQuery(rpcStore, perfBucket, "n_int", index.Range(int64(0), int64(perfKeySpread)), index.Options{}).Keys()
	return err
}

func perfQueryPage(counter int) error {
	q := index.NewQuery(rpcStore, perfBucket, "n_int", index.Range(int64(0), int64(perfKeySpread)), index.Options{MaxResults: 10})
	if _, err := q.Keys(); err != nil {
		return err
	}
	next, err := q.NextPage()
	if err != nil {
		return nil
	}
	_, err = next.Keys()
	return err
}

func perfQueryTerms(counter int) error {
	_, err := index.NewQuery(rpcStore, perfBucket, "name_bin", index.Range("", "~"), index.Options{ReturnTerms: true}).Keys()
	return err
}

func perfStream(counter int) error {
	return index.NewQuery(rpcStore, perfBucket, "n_int", index.Range(int64(0), int64(perfKeySpread)), index.Options{}).Stream(func(string) {})
}

func perfDelete(counter int) error {
	return rpcStore.Delete(perfBucket, perfKey(counter))
}

func perfMixed(counter int) error {
	switch counter % 4 {
	case 0:
		return perfPut(counter)
	case 1:
		return perfFetch(counter)
	case 2:
		return perfQueryExact(counter)
	default:
		return perfQueryRange(counter)
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// perfKey maps a counter onto one of perfKeySpread keys (with wraparound)
func perfKey(counter int) string {
	return fmt.Sprintf("key-%d", counter%perfKeySpread)
}

func perfEntries(counter int) []store.IndexEntry {
	n := counter % perfKeySpread
	return []store.IndexEntry{
		{Name: "n_int", Term: int64(n)},
		{Name: "name_bin", Term: fmt.Sprintf("name-%04d", n)},
	}
}

// perfFill stores all test objects
func perfFill() error {
	for i := 0; i < perfKeySpread; i++ {
		if err := perfPut(i); err != nil {
			return err
		}
	}
	return nil
}

// perfCleanup deletes all test objects
func perfCleanup() {
	for i := 0; i < perfKeySpread; i++ {
		if err := rpcStore.Delete(perfBucket, perfKey(i)); err != nil {
			log.Printf("(cleanup) - error deleting key: %v\n", err)
		}
	}
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, t gometrics.Timer, errors int64) {
	mean := time.Duration(t.Mean())
	p99 := time.Duration(t.Percentile(0.99))
	fmt.Printf("%-20s%d ops\tmean %s/op\tp99 %s/op\t%.0f ops/sec\t%d errors\n",
		test, t.Count(), mean, p99, t.RateMean(), errors)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, registry gometrics.Registry, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P50Ns", "P99Ns", "MaxNs", "OpsPerSec", "Errors",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint", "StreamChunkSize",
		"ShardID", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results in run order
	for _, test := range perfTests {
		timer, ok := registry.Get(test.name).(gometrics.Timer)
		if !ok {
			continue
		}
		t := timer.Snapshot()
		var errors int64
		if c, ok := registry.Get(test.name + ".errors").(gometrics.Counter); ok {
			errors = c.Count()
		}

		row := []string{
			test.name,
			strconv.FormatInt(t.Count(), 10),
			fmt.Sprintf("%.0f", t.Mean()),
			fmt.Sprintf("%.0f", t.Percentile(0.5)),
			fmt.Sprintf("%.0f", t.Percentile(0.99)),
			strconv.FormatInt(t.Max(), 10),
			fmt.Sprintf("%.0f", t.RateMean()),
			strconv.FormatInt(errors, 10),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.Itoa(config.StreamChunkSize),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test.name, err)
		}
	}

	return nil
}
