package index

import (
	"github.com/ValentinKolb/dIndex/cmd/util"
	"github.com/ValentinKolb/dIndex/lib/store"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IStore

	// IndexCommands represents the index command group
	IndexCommands = &cobra.Command{
		Use:               "index",
		Short:             "Store objects and query secondary indexes",
		PersistentPreRunE: setupIndexClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the index command
	util.SetupRPCClientFlags(IndexCommands)

	IndexCommands.PersistentFlags().Int("shard", 100, util.WrapString("ID of the shard to connect to"))

	// Add subcommands
	IndexCommands.AddCommand(putCmd)
	IndexCommands.AddCommand(fetchCmd)
	IndexCommands.AddCommand(delCmd)
	IndexCommands.AddCommand(queryCmd)
	IndexCommands.AddCommand(infoCmd)
	IndexCommands.AddCommand(serverVersionCmd)
	IndexCommands.AddCommand(perfTestCmd)
}

// setupIndexClient initializes the RPC store client
func setupIndexClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	rpcStore, err = util.NewClient()
	return err
}
