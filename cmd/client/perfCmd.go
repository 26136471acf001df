package client

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/stry/cmd/util"
	"github.com/ValentinKolb/stry/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for stry servers",
		Long:    "Runs a set of benchmarks against a stry server. Note that the benchmarks change the usage statistics of the server.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfLargePayloadKB = 8
	perfRunLength      = 4
	perfNumThreads     = 10
	perfSkip           = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. ping,stats)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-payload-size"
	perfTestCmd.Flags().Int(key, 8, util.WrapString("How large the payload for the compress-large test should be (in KB, must not exceed the max payload of the server)"))
	key = "run-length"
	perfTestCmd.Flags().Int(key, 4, util.WrapString("Length of the letter runs in the generated payloads"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargePayloadKB = viper.GetInt("large-payload-size")
	perfRunLength = viper.GetInt("run-length")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfRunLength < 1 {
		return fmt.Errorf("run length must be at least 1")
	}
	if perfLargePayloadKB*1024 >= common.MaxMaxPayload {
		return fmt.Errorf("large payload of %d KB exceeds the protocol limit", perfLargePayloadKB)
	}
	return nil
}

// benchmark describes one test of the perf command
type benchmark struct {
	name string
	op   func() error
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for stry servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	small := makePayload(64, perfRunLength)
	large := makePayload(perfLargePayloadKB*1024, perfRunLength)

	// payloads are only read by the client and can be shared between goroutines
	compressOp := func(payload []byte) func() error {
		return func() error {
			_, err := rpcClient.Compress(payload)
			return err
		}
	}

	benchmarks := []benchmark{
		{"ping", rpcClient.Ping},
		{"compress-small", compressOp(small)},
		{"compress-large", compressOp(large)},
		{"stats", func() error {
			_, err := rpcClient.GetStats()
			return err
		}},
	}

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	for _, bm := range benchmarks {
		bm := bm
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if err := bm.op(); err != nil {
						log.Printf("(%s) - error: %v\n", bm.name, err)
					}
				}
			})
		})

		results[bm.name] = result
		printResult(bm.name, result)
	}

	// Print the statistics the tests produced
	if ws, err := rpcClient.GetStats(); err == nil {
		fmt.Printf("\nserver stats: received=%d, sent=%d, ratio=%d%%\n", ws.BytesReceived, ws.BytesSent, ws.Ratio)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// makePayload creates size bytes of lowercase letters in runs of runLength
func makePayload(size, runLength int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = 'a' + byte((i/runLength)%26)
	}
	return payload
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Transport", "Threads", "LargePayloadKB", "RunLength",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargePayloadKB),
			strconv.Itoa(perfRunLength),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
