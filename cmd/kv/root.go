package kv

import (
	"context"
	"github.com/ValentinKolb/keyz/cmd/util"
	"github.com/ValentinKolb/keyz/rpc/client"
	"github.com/ValentinKolb/keyz/rpc/transport/tcp"
	"github.com/spf13/cobra"
	"os"
)

var (
	kvClient *client.Keyz

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value store operations",
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(exinCmd)
	KeyValueCommands.AddCommand(sendCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient connects the keyz client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := util.InitLogging(); err != nil {
		return err
	}

	config := util.GetClientConfig()

	// Create the client, this resolves the endpoint and connects
	var err error
	kvClient, err = client.NewKeyz(
		cmd.Context(),
		*config,
		tcp.NewTCPClientTransport(),
	)

	return err
}

// CloseClient says goodbye to the server and prints the metrics if requested.
// It must run after every command, including failed ones (cobra skips post run hooks on errors).
func CloseClient(ctx context.Context) error {
	defer util.PrintMetrics(os.Stdout)

	if kvClient == nil {
		return nil
	}
	c := kvClient
	kvClient = nil
	return c.Dispose(ctx)
}
