package index

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dIndex/cmd/util"
	"github.com/ValentinKolb/dIndex/lib/index"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [bucket] [key] [value]",
		Short: "Stores an object with its index entries",
		Long:  "Stores an object and replaces its index entries. Use - as key to let the server assign one. Index entries are given as --index name=term, terms of indexes ending in _int are parsed as integers.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawEntries, err := cmd.Flags().GetStringArray("index")
			if err != nil {
				return err
			}
			entries, err := parseIndexEntries(rawEntries)
			if err != nil {
				return err
			}

			key := args[1]
			if key == "-" {
				key = ""
			}
			key, err = rpcStore.Put(args[0], key, []byte(args[2]), entries)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s stored with %d index entries\n", key, len(entries))
			return nil
		},
	}
	fetchCmd = &cobra.Command{
		Use:   "fetch [bucket] [key]",
		Short: "Reads the value of an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ignoreMissing, err := cmd.Flags().GetBool("ignore-missing")
			if err != nil {
				return err
			}
			value, err := rpcStore.FetchValue(args[0], args[1], index.FetchOptions{IgnoreMissing: ignoreMissing})
			if err != nil {
				return err
			}
			if value == nil {
				fmt.Printf("key=%s, found=false\n", args[1])
				return nil
			}
			fmt.Printf("key=%s, found=true, value=%s\n", args[1], value)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [bucket] [key]",
		Short: "Deletes an object and its index entries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Delete(args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	queryCmd = &cobra.Command{
		Use:   "query [bucket] [index] [term] | [bucket] [index] [start] [end]",
		Short: "Queries a secondary index",
		Long:  "Queries a secondary index for an exact term or, if two terms are given, for an inclusive range. Results are printed as JSON unless --stream or --values is set.",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  runQuery,
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints statistics about the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rpcStore.GetInfo()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	serverVersionCmd = &cobra.Command{
		Use:   "server-version",
		Short: "Prints the version of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := rpcStore.ServerVersion()
			if err != nil {
				return err
			}
			fmt.Printf("server v%s (pagination supported: %t)\n", version, index.SupportsPagination(version))
			return nil
		},
	}
)

func init() {
	putCmd.Flags().StringArray("index", nil, util.WrapString("Index entry of the object as name=term (repeatable)"))

	fetchCmd.Flags().Bool("ignore-missing", false, util.WrapString("Report a missing object instead of failing"))

	queryCmd.Flags().Int("max-results", 0, util.WrapString("Maximum number of results per page (0 = unlimited)"))
	queryCmd.Flags().String("continuation", "", util.WrapString("Continuation token of a previous page"))
	queryCmd.Flags().Bool("return-terms", false, util.WrapString("Return the matching term with every key (range queries only)"))
	queryCmd.Flags().Bool("stream", false, util.WrapString("Stream the keys, printing one per line"))
	queryCmd.Flags().Bool("values", false, util.WrapString("Fetch and print the value of every key"))
	queryCmd.Flags().Bool("ignore-missing", false, util.WrapString("Skip keys whose object is gone when fetching values"))
	queryCmd.Flags().Bool("all-pages", false, util.WrapString("Follow the continuations and print every page"))
}

// runQuery executes the query command in one of its output modes
func runQuery(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	maxResults, _ := flags.GetInt("max-results")
	continuation, _ := flags.GetString("continuation")
	returnTerms, _ := flags.GetBool("return-terms")
	stream, _ := flags.GetBool("stream")
	values, _ := flags.GetBool("values")
	ignoreMissing, _ := flags.GetBool("ignore-missing")
	allPages, _ := flags.GetBool("all-pages")

	criterion, err := parseCriterion(args[1], args[2:])
	if err != nil {
		return err
	}

	q := index.NewQuery(rpcStore, args[0], args[1], criterion, index.Options{
		MaxResults:   maxResults,
		Continuation: continuation,
		ReturnTerms:  returnTerms,
	})

	switch {
	case stream:
		count := 0
		err := q.Stream(func(key string) {
			fmt.Println(key)
			count++
		})
		if err != nil {
			return err
		}
		fmt.Printf("streamed %d keys\n", count)
		return nil
	case values:
		vals, err := q.Values(index.FetchOptions{IgnoreMissing: ignoreMissing})
		if err != nil {
			return err
		}
		for _, v := range vals {
			if v == nil {
				fmt.Println("<missing>")
				continue
			}
			fmt.Println(string(v))
		}
		return nil
	case allPages:
		return q.Pages(printCollection)
	default:
		page, err := q.Keys()
		if err != nil {
			return err
		}
		return printCollection(page)
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// printCollection prints a page in the json format of the legacy http api
func printCollection(page *index.Collection) error {
	out, err := page.MarshalJSON()
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// parseCriterion builds an exact or range criterion from the term arguments
func parseCriterion(indexName string, terms []string) (index.Criterion, error) {
	start, err := util.ParseTerm(indexName, terms[0])
	if err != nil {
		return index.Criterion{}, err
	}
	if len(terms) == 1 {
		return index.Exact(start), nil
	}
	end, err := util.ParseTerm(indexName, terms[1])
	if err != nil {
		return index.Criterion{}, err
	}
	return index.Range(start, end), nil
}

// parseIndexEntries parses name=term pairs
func parseIndexEntries(raw []string) ([]store.IndexEntry, error) {
	entries := make([]store.IndexEntry, 0, len(raw))
	for _, r := range raw {
		name, rawTerm, ok := strings.Cut(r, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid index entry: %s (expected name=term)", r)
		}
		term, err := util.ParseTerm(name, rawTerm)
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.IndexEntry{Name: name, Term: term})
	}
	return entries, nil
}
