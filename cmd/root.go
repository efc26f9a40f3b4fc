package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dIndex/cmd/index"
	"github.com/ValentinKolb/dIndex/cmd/path"
	"github.com/ValentinKolb/dIndex/cmd/serve"
	"github.com/ValentinKolb/dIndex/cmd/ts"
	"github.com/ValentinKolb/dIndex/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.4.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dindex",
		Short: "secondary index queries against a key-value store",
		Long: fmt.Sprintf(`dIndex (v%s)

Query secondary indexes of a key-value store over RPC. Keys can be
fetched page by page, streamed, or resolved to their values. Time series
rows are stored as typed cells.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dIndex",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dIndex v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(index.IndexCommands)
	RootCmd.AddCommand(ts.TimeSeriesCommands)
	RootCmd.AddCommand(path.PathCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
