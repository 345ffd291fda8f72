package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contracts-explorer/internal/parquet"
	"github.com/sells-group/contracts-explorer/internal/store"
)

var loadPath string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the parquet sample into the query store",
	Long: `Load contracts_sample.parquet into the configured store (sqlite or
postgres), replacing any previously loaded sample, and record the load in
the load log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "load"))

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := loadSample(ctx, st, loadPath)
		if err != nil {
			return eris.Wrap(err, "load")
		}

		log.Info("sample loaded", zap.String("path", loadPath), zap.Int64("rows", n))
		fmt.Printf("Loaded %d contracts from %s\n", n, loadPath)
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadPath, "file", parquet.SampleFile, "parquet sample file to load")
	rootCmd.AddCommand(loadCmd)
}

// openStore builds the configured ContractStore and runs migrations.
func openStore(ctx context.Context) (store.ContractStore, error) {
	cutoff, err := cfg.Reduce.Cutoff()
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, cfg.Store, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// loadSample reads a parquet sample and replaces the store contents,
// recording the outcome in the load log.
func loadSample(ctx context.Context, st store.ContractStore, path string) (int64, error) {
	started := time.Now().UTC()

	records, err := parquet.ReadSample(path)
	if err != nil {
		return 0, err
	}

	n, err := st.ReplaceContracts(ctx, records)
	entry := store.LoadEntry{
		SourcePath:  path,
		RowCount:    n,
		Status:      "complete",
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		entry.Status = "failed"
		entry.RowCount = 0
		if logErr := st.RecordLoad(ctx, entry); logErr != nil {
			zap.L().Warn("record failed load", zap.Error(logErr))
		}
		return 0, err
	}

	if err := st.RecordLoad(ctx, entry); err != nil {
		return n, err
	}
	return n, nil
}
