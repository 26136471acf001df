package cmd

import (
	"fmt"
	"github.com/ValentinKolb/stry/cmd/client"
	"github.com/ValentinKolb/stry/cmd/serve"
	"github.com/ValentinKolb/stry/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "stry",
		Short: "run-length compression service",
		Long: fmt.Sprintf(`stry (v%s)

A TCP service that compresses lowercase ASCII text with run-length
encoding over the binary STRY protocol and keeps shared usage
statistics of all connections.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of stry",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stry v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(client.ClientCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
