package ts

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dIndex/cmd/util"
	"github.com/ValentinKolb/dIndex/lib/cell"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IStore

	// TimeSeriesCommands represents the time series command group
	TimeSeriesCommands = &cobra.Command{
		Use:               "ts",
		Short:             "Store and read time series rows",
		PersistentPreRunE: setupTimeSeriesClient,
	}

	// putCmd represents the put command
	putCmd = &cobra.Command{
		Use:   "put [table] [key] [values...]",
		Short: "Store a row of typed cells",
		Long: util.WrapString(`Store a row of typed cells, replacing an existing row with the same key.
Values are typed by their form: null, true and false, integers, decimals,
RFC 3339 timestamps and strings. Quote a value with single quotes to store it as a string.`),
		Args: cobra.MinimumNArgs(2),
		RunE: runPut,
	}

	// getCmd represents the get command
	getCmd = &cobra.Command{
		Use:   "get [table] [key]",
		Short: "Read a row",
		Args:  cobra.ExactArgs(2),
		RunE:  runGet,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add subcommands to ts command
	TimeSeriesCommands.AddCommand(putCmd)
	TimeSeriesCommands.AddCommand(getCmd)

	// Add common RPC flags to the ts command
	util.SetupRPCClientFlags(TimeSeriesCommands)

	// Set default shard ID for time series operations (different from index default)
	TimeSeriesCommands.PersistentFlags().Int("shard", 200, util.WrapString("ID of the shard to connect to"))
}

// setupTimeSeriesClient initializes the RPC store client
func setupTimeSeriesClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	rpcStore, err = util.NewClient()
	return err
}

// runPut encodes the values and stores the row
func runPut(_ *cobra.Command, args []string) error {
	row, err := cell.EncodeRow(util.ParseValues(args[2:]))
	if err != nil {
		return err
	}

	if err := rpcStore.PutRow(args[0], args[1], row); err != nil {
		return err
	}

	fmt.Printf("stored row %s/%s with %d cells\n", args[0], args[1], len(row))
	return nil
}

// runGet reads a row and prints every cell with its type
func runGet(_ *cobra.Command, args []string) error {
	row, found, err := rpcStore.GetRow(args[0], args[1])
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("row %s/%s, found=false\n", args[0], args[1])
		return nil
	}

	values, err := cell.DecodeRow(row)
	if err != nil {
		return err
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%s(%s)", row[i].Tag(), util.FormatValue(v))
	}
	fmt.Printf("row %s/%s, found=true, cells=[%s]\n", args[0], args[1], strings.Join(parts, ", "))
	return nil
}
