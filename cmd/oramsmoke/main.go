// Smoke-test driver for the pathoram engine: writes random payloads to
// randomly chosen block IDs, reads them back, and reports success and
// failure counts.
package main

import (
	"bytes"
	"fmt"
	stdlog "log"
	"math/rand/v2"
	"os"

	"github.com/cbrl/pathoram"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
)

func main() {
	var (
		height     int
		blockSize  int
		bucketSize int
		seed       uint64
		trace      bool
		verbosity  int
	)

	rootCmd := &cobra.Command{
		Use:   "oramsmoke",
		Short: "Path ORAM smoke test",
		Long: `Populates a Path ORAM engine with random blocks and reads them back.

Block IDs are drawn with replacement, so collisions shrink the distinct
written set; expectations are keyed by ID and collisions never count as
failures.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdr.SetVerbosity(verbosity)
			logger := stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags)).WithName("oramsmoke")

			cfg := pathoram.Config{
				Height:     height,
				BlockSize:  blockSize,
				BucketSize: bucketSize,
				Logger:     logger,
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = &seed
			}
			cfg, err := cfg.Validate()
			if err != nil {
				return err
			}
			_, totalBuckets, numBlocks := cfg.TreeParams()

			store := pathoram.Storage(pathoram.NewInMemoryStorage(totalBuckets, cfg.BucketSize, cfg.BlockSize))
			var rec *pathoram.TraceStorage
			if trace {
				rec = pathoram.NewTraceStorage(store)
				store = rec
			}

			oram, err := pathoram.New(cfg, store, pathoram.NewArrayPositionMap(numBlocks), pathoram.NoOpEncryptor{})
			if err != nil {
				return err
			}

			fmt.Printf("Height: %d\n", oram.Height())
			fmt.Printf("Bucket Count: %d\n\n", oram.BucketCount())

			var drv *rand.Rand
			if cfg.Seed != nil {
				drv = rand.New(rand.NewPCG(*cfg.Seed, ^*cfg.Seed))
			} else {
				drv = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			}

			logger.V(1).Info("generating inputs", "draws", numBlocks)
			inputs := make(map[int][]byte, numBlocks)
			for i := 0; i < numBlocks; i++ {
				id := drv.IntN(numBlocks)
				payload := bytes.Repeat([]byte{byte(drv.IntN(256))}, cfg.BlockSize)
				inputs[id] = payload
			}

			logger.V(1).Info("writing data", "blocks", len(inputs))
			for id, payload := range inputs {
				if err := oram.Write(id, payload); err != nil {
					return fmt.Errorf("write block %d: %w", id, err)
				}
			}

			logger.V(1).Info("reading data back")
			var successes, failures int
			for id, want := range inputs {
				got, err := oram.Read(id)
				if err != nil {
					return fmt.Errorf("read block %d: %w", id, err)
				}
				if bytes.Equal(got, want) {
					successes++
				} else {
					failures++
				}
			}

			fmt.Printf("Successful tests: %d\nFailed tests: %d\n", successes, failures)
			if rec != nil {
				fmt.Printf("Bucket accesses: %d\n", len(rec.Trace()))
			}
			logger.V(1).Info("done", "stash", oram.StashSize())
			return nil
		},
	}

	rootCmd.Flags().IntVar(&height, "height", 12, "tree height L")
	rootCmd.Flags().IntVar(&blockSize, "block-size", 16, "block payload size B in bytes")
	rootCmd.Flags().IntVar(&bucketSize, "bucket-size", 4, "bucket capacity Z")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "RNG seed for a reproducible run")
	rootCmd.Flags().BoolVar(&trace, "trace", false, "count physical bucket accesses")
	rootCmd.Flags().IntVarP(&verbosity, "verbosity", "v", 0, "log verbosity (0-2)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
