package reduce

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contracts-explorer/internal/model"
	"github.com/sells-group/contracts-explorer/internal/parquet"
)

// Options configures one reduction run.
type Options struct {
	Sources  []string  // glob patterns; nil means DefaultSources
	OutDir   string    // artifact directory; "" means working directory
	Cutoff   time.Time // drop records ending before this date; zero disables
	Quantile float64   // value quantile splitting large from small; 0 means 0.8
	Sampler  Sampler   // random source; nil means time-seeded
}

// Result summarizes a completed reduction run.
type Result struct {
	RowsIn         int
	SourceFailures []*SourceError
	RowsCleaned    int
	Threshold      float64
	Large          int
	Small          int
	Sampled        int
	RowsWritten    int
	Artifacts      *parquet.Artifacts
	Values         ValueSummary
	ActionDates    DateRange
	EndDates       DateRange
}

// ValueSummary holds min/max/mean of the sampled current total values.
type ValueSummary struct {
	Min, Max, Mean float64
}

// DateRange holds the min/max of a date column. Valid is false when the
// column is entirely null.
type DateRange struct {
	Min, Max time.Time
	Valid    bool
}

// Run executes the full reduction: aggregate, clean, sample, persist.
func Run(opts Options) (*Result, error) {
	log := zap.L().With(zap.String("command", "reduce"))
	start := time.Now()

	if len(opts.Sources) == 0 {
		opts.Sources = DefaultSources
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if opts.Quantile == 0 {
		opts.Quantile = 0.8
	}
	if opts.Sampler == nil {
		opts.Sampler = NewSampler(0)
	}

	records, failures, err := Aggregate(opts.Sources)
	if err != nil {
		return nil, err
	}

	cleaned := Clean(records, opts.Cutoff)

	res := &Result{
		RowsIn:         len(records),
		SourceFailures: failures,
		RowsCleaned:    len(cleaned),
	}

	sample := cleaned
	if len(cleaned) > 0 {
		sr := StratifiedSample(cleaned, opts.Quantile, opts.Sampler)
		sample = sr.Records
		res.Threshold = sr.Threshold
		res.Large = sr.Large
		res.Small = sr.Small
		res.Sampled = sr.Sampled
	} else {
		log.Warn("cleaned record set is empty, writing empty sample")
	}

	artifacts, err := parquet.WriteSample(opts.OutDir, sample)
	if err != nil {
		return nil, eris.Wrapf(ErrPersistence, "%s: %v", opts.OutDir, err)
	}
	res.Artifacts = artifacts
	res.RowsWritten = len(sample)
	summarize(res, sample)

	log.Info("reduction complete",
		zap.Int("rows_in", res.RowsIn),
		zap.Int("rows_cleaned", res.RowsCleaned),
		zap.Int("rows_written", res.RowsWritten),
		zap.String("parquet_size", humanize.IBytes(uint64(artifacts.ParquetBytes))),
		zap.String("csv_size", humanize.IBytes(uint64(artifacts.CSVBytes))),
		zap.Duration("elapsed", time.Since(start)),
	)

	return res, nil
}

// summarize fills the value and date summaries from the written sample.
func summarize(res *Result, sample []model.Contract) {
	var sum float64
	for i := range sample {
		rec := &sample[i]
		v := *rec.CurrentTotalValue
		sum += v
		if i == 0 || v < res.Values.Min {
			res.Values.Min = v
		}
		if i == 0 || v > res.Values.Max {
			res.Values.Max = v
		}
		extendRange(&res.ActionDates, rec.ActionDate)
		extendRange(&res.EndDates, rec.EndDate)
	}
	if len(sample) > 0 {
		res.Values.Mean = sum / float64(len(sample))
	}
}

func extendRange(r *DateRange, t *time.Time) {
	if t == nil {
		return
	}
	if !r.Valid {
		r.Min, r.Max, r.Valid = *t, *t, true
		return
	}
	if t.Before(r.Min) {
		r.Min = *t
	}
	if t.After(r.Max) {
		r.Max = *t
	}
}
