package client

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/stry/lib/compress"
	"github.com/spf13/cobra"
	"time"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if err := rpcClient.Ping(); err != nil {
				return err
			}
			fmt.Printf("pong (%s)\n", time.Since(start))
			return nil
		},
	}
	compressCmd = &cobra.Command{
		Use:   "compress [text]",
		Short: "Compresses lowercase text with run-length encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			out, err := rpcClient.Compress([]byte(text))
			if err != nil {
				return err
			}

			verify, _ := cmd.Flags().GetBool("verify")
			if verify {
				expanded, err := compress.Expand(out)
				if err != nil {
					return fmt.Errorf("server returned an invalid encoding %q: %w", out, err)
				}
				if string(expanded) != text {
					return fmt.Errorf("server returned %q which expands to %q", out, expanded)
				}
			}

			fmt.Printf("%s\n", out)
			return nil
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints the usage statistics of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := rpcClient.GetStats()
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				out, err := json.Marshal(ws)
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("received=%d, sent=%d, ratio=%d%%\n", ws.BytesReceived, ws.BytesSent, ws.Ratio)
			return nil
		},
	}
	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Resets the usage statistics of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.ResetStats(); err != nil {
				return err
			}
			fmt.Println("reset successfully")
			return nil
		},
	}
)

func init() {
	compressCmd.Flags().Bool("verify", false, "Expand the response locally and check that it matches the input")
	statsCmd.Flags().Bool("json", false, "Print the statistics as JSON")
}
