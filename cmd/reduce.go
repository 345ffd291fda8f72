package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contracts-explorer/internal/reduce"
)

var (
	reduceSources []string
	reduceOut     string
	reduceCutoff  string
	reduceSeed    int64
)

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Reduce contract extracts to a stratified sample",
	Long: `Reduce USAspending bulk-download CSV extracts to a bounded sample.

All FY*_All_Contracts_Full_* files in the working directory (or one level
below it) are projected, cleaned, and stratified-sampled: every contract at
or above the 80th-percentile value is kept, plus an equal-sized random
cross-section of the rest. The sample is written as gzip parquet with a CSV
backup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := zap.L().With(zap.String("command", "reduce"))

		cutoffStr := reduceCutoff
		if !cmd.Flags().Changed("cutoff") {
			cutoffStr = cfg.Reduce.CutoffDate
		}
		var cutoff time.Time
		if cutoffStr != "" {
			t, err := time.Parse("2006-01-02", cutoffStr)
			if err != nil {
				return eris.Wrapf(err, "reduce: bad cutoff %q", cutoffStr)
			}
			cutoff = t.UTC()
		}

		sources := reduceSources
		if len(sources) == 0 {
			sources = cfg.Reduce.Sources
		}
		outDir := reduceOut
		if outDir == "" {
			outDir = cfg.Reduce.OutDir
		}
		seed := reduceSeed
		if seed == 0 {
			seed = cfg.Reduce.Seed
		}

		log.Info("starting reduction",
			zap.Strings("sources", sources),
			zap.String("out_dir", outDir),
			zap.Time("cutoff", cutoff),
		)

		res, err := reduce.Run(reduce.Options{
			Sources:  sources,
			OutDir:   outDir,
			Cutoff:   cutoff,
			Quantile: cfg.Reduce.SampleQuantile,
			Sampler:  reduce.NewSampler(seed),
		})
		if err != nil {
			return eris.Wrap(err, "reduce")
		}

		for _, f := range res.SourceFailures {
			fmt.Printf("skipped %s: %v\n", f.Path, f.Err)
		}
		fmt.Printf("Rows read:     %d\n", res.RowsIn)
		fmt.Printf("Rows cleaned:  %d\n", res.RowsCleaned)
		fmt.Printf("Rows sampled:  %d (threshold $%.2f, %d large + %d of %d small)\n",
			res.RowsWritten, res.Threshold, res.Large, res.Sampled, res.Small)
		if res.RowsWritten > 0 {
			fmt.Printf("Value range:   $%.2f - $%.2f (mean $%.2f)\n",
				res.Values.Min, res.Values.Max, res.Values.Mean)
			if res.ActionDates.Valid {
				fmt.Printf("Action dates:  %s - %s\n",
					res.ActionDates.Min.Format("2006-01-02"), res.ActionDates.Max.Format("2006-01-02"))
			}
			if res.EndDates.Valid {
				fmt.Printf("End dates:     %s - %s\n",
					res.EndDates.Min.Format("2006-01-02"), res.EndDates.Max.Format("2006-01-02"))
			}
		}
		fmt.Printf("Parquet file:  %s (%s)\n", res.Artifacts.ParquetPath, humanize.IBytes(uint64(res.Artifacts.ParquetBytes)))
		fmt.Printf("CSV backup:    %s (%s)\n", res.Artifacts.CSVPath, humanize.IBytes(uint64(res.Artifacts.CSVBytes)))
		return nil
	},
}

func init() {
	reduceCmd.Flags().StringSliceVar(&reduceSources, "source", nil, "glob pattern for source extracts (repeatable)")
	reduceCmd.Flags().StringVar(&reduceOut, "out", "", "output directory for sample artifacts")
	reduceCmd.Flags().StringVar(&reduceCutoff, "cutoff", "", "drop contracts ending before this date (YYYY-MM-DD, empty disables)")
	reduceCmd.Flags().Int64Var(&reduceSeed, "seed", 0, "random seed for the sampler (0 = time-seeded)")
	rootCmd.AddCommand(reduceCmd)
}
