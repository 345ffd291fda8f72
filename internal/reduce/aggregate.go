package reduce

import (
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contracts-explorer/internal/model"
)

// DefaultSources are the two layouts USAspending bulk downloads unpack into:
// loose files in the working directory, or one directory per download.
var DefaultSources = []string{
	"FY*_All_Contracts_Full_*.csv",
	"FY20*_All_Contracts_Full_*/FY*_All_Contracts_Full_*.csv",
}

// Aggregate expands the glob patterns, projects every matched file, and
// concatenates the surviving record sets in discovery order. Per-file
// failures are collected and logged; the run fails only when zero sources
// yield records, with ErrNoValidData.
func Aggregate(patterns []string) ([]model.Contract, []*SourceError, error) {
	log := zap.L().With(zap.String("stage", "aggregate"))

	paths, err := discover(patterns)
	if err != nil {
		return nil, nil, err
	}
	log.Info("discovered source files", zap.Int("count", len(paths)))

	var (
		records  []model.Contract
		failures []*SourceError
		ok       int
	)
	for _, path := range paths {
		projected, err := ProjectFile(path)
		if err != nil {
			srcErr := &SourceError{Path: path, Err: err}
			failures = append(failures, srcErr)
			log.Warn("skipping unreadable source",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		ok++
		records = append(records, projected...)
		log.Info("projected source file",
			zap.String("path", path),
			zap.Int("rows", len(projected)),
		)
	}

	if ok == 0 {
		return nil, failures, eris.Wrapf(ErrNoValidData, "%d sources failed", len(failures))
	}

	return records, failures, nil
}

// discover expands each pattern in order, deduplicating paths matched by
// more than one pattern. Matches within a pattern are sorted so discovery
// order is stable across runs.
func discover(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: bad pattern %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}
	return paths, nil
}
