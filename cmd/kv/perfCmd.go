package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/keyz/cmd/util"
	"github.com/ValentinKolb/keyz/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
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
		Use:   "perf",
		Short: "Performance testing tool for keyz servers",
		Long: `Runs a set of parallel benchmarks against a keyz server.
All goroutines share the single connection of the client, so the
results show the latency of the request queue as well as the server.`,
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

// percentiles reported for every benchmark
var perfPercentiles = []float64{0.5, 0.9, 0.99}

// perfResult is the result of a single benchmark
type perfResult struct {
	bench   testing.BenchmarkResult
	latency gometrics.Timer
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
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
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread <= 0 || perfNumThreads <= 0 {
		return fmt.Errorf("keys and threads must be positive")
	}

	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	fmt.Println("Performance testing tool for keyz servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]perfResult)
	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)

	results["set"] = benchmark(ctx, "set", nil, func(key string, _ int) error {
		_, err := kvClient.Set(ctx, key, "test")
		return err
	})

	results["set-ex"] = benchmark(ctx, "set-ex", nil, func(key string, _ int) error {
		_, err := kvClient.SetEx(ctx, key, "test", 60)
		return err
	})

	results["set-large"] = benchmark(ctx, "set-large", nil, func(key string, _ int) error {
		_, err := kvClient.Set(ctx, key, largeValue)
		return err
	})

	results["get"] = benchmark(ctx, "get", prefill, func(key string, _ int) error {
		_, err := kvClient.Get(ctx, key)
		return err
	})

	results["exin"] = benchmark(ctx, "exin", prefill, func(key string, _ int) error {
		_, err := kvClient.ExpiresIn(ctx, key)
		return err
	})

	results["mixed"] = benchmark(ctx, "mixed", nil, func(key string, counter int) error {
		var err error
		switch counter % 4 {
		case 0: // set
			_, err = kvClient.SetEx(ctx, key, "test", 60)
		case 1: // get
			_, err = kvClient.Get(ctx, key)
		case 2: // exin
			_, err = kvClient.ExpiresIn(ctx, key)
		case 3: // delete
			_, err = kvClient.Delete(ctx, key)
		}
		return err
	})

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

// prefill stores a short value with expiration under key
func prefill(ctx context.Context, key string) error {
	_, err := kvClient.SetEx(ctx, key, "test", 60)
	return err
}

// benchmark runs op in parallel on perfKeySpread keys and records the latency of every call.
// Command errors (e.g. a missing key in the mixed test) are expected and only connection
// errors are logged.
func benchmark(
	ctx context.Context,
	test string,
	prepare func(ctx context.Context, key string) error,
	op func(key string, counter int) error,
) perfResult {
	latency := gometrics.NewTimer()

	result := testing.Benchmark(func(b *testing.B) {
		if shouldSkip(test) {
			return
		}

		// prepare keys
		getKey, iter := getKeys(test)

		if prepare != nil {
			iter(func(k string) {
				if err := prepare(ctx, k); err != nil {
					log.Printf("(%s) - error preparing key: %v\n", test, err)
				}
			})
		}

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				_, _ = kvClient.Delete(ctx, k)
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				err := op(getKey(counter), counter)
				latency.UpdateSince(start)

				if err != nil && common.IsFatal(err) {
					log.Printf("(%s) - error performing operation: %v\n", test, err)
				}
				counter++
			}
		})
	})

	res := perfResult{bench: result, latency: latency}
	printResult(test, res)
	return res
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.bench.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// latency of a single request, including the time spent waiting for the connection
	ps := result.latency.Snapshot().Percentiles(perfPercentiles)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p90=%s p99=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P90Ns", "P99Ns", "Skipped",
		"Endpoint", "TimeoutSec", "TCPNoDelay",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string
		ps := make([]float64, len(perfPercentiles))

		if result.bench.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
			ps = result.latency.Snapshot().Percentiles(perfPercentiles)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			skipped,
			config.Endpoint,
			strconv.Itoa(config.TimeoutSecond),
			strconv.FormatBool(config.Transport.TCPNoDelay),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
