package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/bioreactor-core/internal/infrastructure/config"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/logging"
	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// mockOptions controls the mock-data command.
type mockOptions struct {
	batch bool
	seed  uint64
	end   time.Time
}

func newMockDataCommand(configPath *string) *cobra.Command {
	var (
		opts mockOptions
		end  string
	)

	cmd := &cobra.Command{
		Use:   "mock-data",
		Short: "Insert twelve hours of simulated readings",
		Long: "Insert 720 simulated readings, one per minute, ending now.\n" +
			"Without --batch each row commits on its own and the command stops at\n" +
			"the first duplicate timestamp; with --batch nothing is written on failure.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.end = time.Now()
			if end != "" {
				ts, err := measurement.ParseTimestamp(end)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				opts.end = ts
			}

			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runMockData(cmd.Context(), cmd.OutOrStdout(), cfg, log, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.batch, "batch", false, "insert all readings in one transaction")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().StringVar(&end, "end", "", "ISO-8601 timestamp the series ends at (default now)")
	return cmd
}

// runMockData generates the mock series and stores it in the configured database.
func runMockData(ctx context.Context, out io.Writer, cfg *config.Config, log *logging.Logger, opts mockOptions) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close() //nolint:errcheck // Writes are committed before close

	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // Clock is non-negative
	}
	//nolint:gosec // Mock readings need no cryptographic randomness
	rng := rand.New(rand.NewPCG(seed, 0))
	ms := measurement.GenerateMock(opts.end.Add(-measurement.MockSpan), measurement.MockReadings, rng)

	stored := len(ms)
	if opts.batch {
		err = st.measurements.InsertBatch(ctx, ms)
		if err != nil {
			stored = 0
		}
	} else {
		stored, err = measurement.InsertEach(ctx, st.measurements, ms)
	}
	if err != nil {
		log.Error("mock data insert failed", "stored", stored, "batch", opts.batch, "error", err)
		return fmt.Errorf("inserting mock data (%d of %d stored): %w", stored, len(ms), err)
	}

	log.Info("mock data inserted", "count", stored, "batch", opts.batch)
	_, err = fmt.Fprintf(out, "inserted %d readings from %s to %s\n",
		stored,
		ms[0].Timestamp.Format(time.RFC3339),
		ms[len(ms)-1].Timestamp.Format(time.RFC3339),
	)
	return err
}
