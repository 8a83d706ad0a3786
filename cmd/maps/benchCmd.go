package maps

import (
	"context"
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dGrid/cmd/util"
	"github.com/ValentinKolb/dGrid/rpc/common"
	vmetrics "github.com/VictoriaMetrics/metrics"
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
	benchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Performance testing tool for dGrid members",
		RunE:    runBench,
		PreRunE: processBenchConfig,
	}
	benchKeyPrefix        = "__test"
	benchLargeValueSizeKB = 100
	benchNumThreads       = 10
	benchKeySpread        = 100
	benchSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	benchCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	benchCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	benchCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	benchCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	benchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	benchCmd.Flags().Bool(key, false, util.WrapString("Print the transport metrics in Prometheus text format after the run"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	benchLargeValueSizeKB = viper.GetInt("large-value-size")
	benchKeySpread = max(1, viper.GetInt("keys"))
	benchNumThreads = viper.GetInt("threads")
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// benchResult is the outcome of a single benchmark
type benchResult struct {
	testing.BenchmarkResult
	latency gometrics.Histogram
	ops     gometrics.Meter
	errors  gometrics.Counter
}

// benchCase describes one benchmark: prepare fills the keys, op is measured
type benchCase struct {
	name    string
	prepare bool
	op      func(ctx context.Context, key string, counter int) error
}

func runBench(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	fmt.Println("Performance testing tool for dGrid members")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(clientConfig.String())
	fmt.Printf("Threads: %d\n", benchNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	largeValue := make([]byte, benchLargeValueSizeKB*1024)
	cases := []benchCase{
		{name: "put", op: func(ctx context.Context, key string, _ int) error {
			_, _, err := rpcMap.Put(ctx, key, []byte("test"))
			return err
		}},
		{name: "put-large", op: func(ctx context.Context, key string, _ int) error {
			_, _, err := rpcMap.Put(ctx, key, largeValue)
			return err
		}},
		{name: "get", prepare: true, op: func(ctx context.Context, key string, _ int) error {
			_, _, err := rpcMap.Get(ctx, key)
			return err
		}},
		{name: "remove", prepare: true, op: func(ctx context.Context, key string, _ int) error {
			_, _, err := rpcMap.Remove(ctx, key)
			return err
		}},
		{name: "has", prepare: true, op: func(ctx context.Context, key string, _ int) error {
			_, err := rpcMap.ContainsKey(ctx, key)
			return err
		}},
		{name: "has-not", op: func(ctx context.Context, _ string, counter int) error {
			_, err := rpcMap.ContainsKey(ctx, fmt.Sprintf("%s/has-not-%d", benchKeyPrefix, counter%100))
			return err
		}},
		{name: "mixed", prepare: true, op: func(ctx context.Context, key string, counter int) error {
			var err error
			switch counter % 4 {
			case 0: // put
				_, _, err = rpcMap.Put(ctx, key, []byte("test"))
			case 1: // get
				_, _, err = rpcMap.Get(ctx, key)
			case 2: // remove
				_, _, err = rpcMap.Remove(ctx, key)
			case 3: // has
				_, err = rpcMap.ContainsKey(ctx, key)
			}
			return err
		}},
	}

	// Create results map
	results := make(map[string]*benchResult)
	for _, c := range cases {
		if shouldSkip(c.name) {
			printResult(c.name, nil)
			continue
		}
		result := runCase(ctx, c)
		results[c.name] = result
		printResult(c.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, clientConfig); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	if viper.GetBool("metrics") {
		fmt.Println()
		vmetrics.WritePrometheus(os.Stdout, false)
	}

	return nil
}

// runCase runs a single benchmark and records the latency of every operation
func runCase(ctx context.Context, c benchCase) *benchResult {
	result := &benchResult{
		latency: gometrics.NewHistogram(gometrics.NewUniformSample(100_000)),
		ops:     gometrics.NewMeter(),
		errors:  gometrics.NewCounter(),
	}
	defer result.ops.Stop()

	result.BenchmarkResult = testing.Benchmark(func(b *testing.B) {
		// prepare keys
		getKey, iter := getKeys(c.name)

		if c.prepare {
			iter(func(k string) {
				if _, _, err := rpcMap.Put(ctx, k, []byte("test")); err != nil {
					log.Printf("(%s) - error setting key: %v\n", c.name, err)
				}
			})
		}

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				if _, _, err := rpcMap.Remove(ctx, k); err != nil {
					log.Printf("(%s) - error removing key: %v\n", c.name, err)
				}
			})
		})

		b.SetParallelism(benchNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				err := c.op(ctx, getKey(counter), counter)
				result.latency.Update(time.Since(start).Microseconds())
				result.ops.Mark(1)
				if err != nil {
					result.errors.Inc(1)
					log.Printf("(%s) - error performing operation: %v\n", c.name, err)
				}
				counter++
			}
		})
	})
	return result
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range benchSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, benchKeySpread)
	for i := 0; i < benchKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", benchKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%benchKeySpread]
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
func printResult(test string, result *benchResult) {
	if result == nil || result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	p := result.latency.Percentiles([]float64{0.5, 0.99})
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%.0fµs p99=%.0fµs errors=%d\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, p[0], p[1], result.errors.Count())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]*benchResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Micros", "P99Micros", "Errors",
		"Endpoints", "TimeoutSec", "PartitionCount", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		nsPerOp := math.Max(float64(result.NsPerOp()), 1)
		p := result.latency.Percentiles([]float64{0.5, 0.99})

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", result.ops.RateMean()),
			fmt.Sprintf("%.0f", p[0]),
			fmt.Sprintf("%.0f", p[1]),
			strconv.FormatInt(result.errors.Count(), 10),
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(int(config.PartitionCount)),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(benchNumThreads),
			strconv.Itoa(benchLargeValueSizeKB),
			strconv.Itoa(benchKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
