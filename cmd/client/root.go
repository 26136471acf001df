package client

import (
	"github.com/ValentinKolb/stry/cmd/util"
	rpcclient "github.com/ValentinKolb/stry/rpc/client"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcClient rpcclient.IStryClient

	// ClientCommands represents the client command group
	ClientCommands = &cobra.Command{
		Use:                "client",
		Short:              "Send requests to a stry server",
		PersistentPreRunE:  setupClient,
		PersistentPostRunE: closeClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the client command
	util.SetupRPCClientFlags(ClientCommands)

	ClientCommands.PersistentFlags().String("log-level", "warn", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	// Add subcommands
	ClientCommands.AddCommand(pingCmd)
	ClientCommands.AddCommand(compressCmd)
	ClientCommands.AddCommand(statsCmd)
	ClientCommands.AddCommand(resetCmd)
	ClientCommands.AddCommand(perfTestCmd)
}

// setupClient initializes the RPC client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := common.SetLogLevel(viper.GetString("log-level")); err != nil {
		return err
	}

	// Get client configuration
	config := util.GetClientConfig()
	if err := config.Validate(); err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the client
	rpcClient, err = rpcclient.NewClient(*config, t)
	return err
}

// closeClient closes the connections of the RPC client
func closeClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}
