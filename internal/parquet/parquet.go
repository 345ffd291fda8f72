// Package parquet persists contract samples as a gzip-compressed parquet
// file with a plain CSV backup, and reads them back for store loads.
package parquet

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contracts-explorer/internal/model"
)

// Default artifact file names.
const (
	SampleFile = "contracts_sample.parquet"
	BackupFile = "contracts_sample.csv"
)

const dateFormat = "2006-01-02"

// Artifacts describes the files produced by WriteSample.
type Artifacts struct {
	ParquetPath  string
	ParquetBytes int64
	CSVPath      string
	CSVBytes     int64
}

// WriteSample writes records into dir as SampleFile and BackupFile. Each
// artifact is written to a temporary path and renamed into place so readers
// never observe a partial file; on failure nothing is left behind.
func WriteSample(dir string, records []model.Contract) (*Artifacts, error) {
	parquetPath := filepath.Join(dir, SampleFile)
	csvPath := filepath.Join(dir, BackupFile)

	n, err := writeAtomic(parquetPath, func(f *os.File) error {
		return writeParquet(f, records)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "parquet: write %s", parquetPath)
	}

	m, err := writeAtomic(csvPath, func(f *os.File) error {
		return writeCSV(f, records)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "parquet: write %s", csvPath)
	}

	return &Artifacts{
		ParquetPath:  parquetPath,
		ParquetBytes: n,
		CSVPath:      csvPath,
		CSVBytes:     m,
	}, nil
}

// ReadSample reads a sample file written by WriteSample.
func ReadSample(path string) ([]model.Contract, error) {
	records, err := parquet.ReadFile[model.Contract](path)
	if err != nil {
		return nil, eris.Wrapf(err, "parquet: read %s", path)
	}
	return records, nil
}

// writeAtomic writes via fn into a temp file in the target directory, then
// renames over path. Returns the byte size of the finished artifact.
func writeAtomic(path string, fn func(*os.File) error) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, eris.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, eris.Wrap(err, "close temp file")
	}

	// CreateTemp opens 0600; the artifacts are read by other processes.
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return 0, eris.Wrap(err, "chmod temp file")
	}

	info, err := os.Stat(tmp.Name())
	if err != nil {
		return 0, eris.Wrap(err, "stat temp file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, eris.Wrap(err, "rename into place")
	}
	return info.Size(), nil
}

func writeParquet(f *os.File, records []model.Contract) error {
	w := parquet.NewGenericWriter[model.Contract](f, parquet.Compression(&parquet.Gzip))
	if len(records) > 0 {
		if _, err := w.Write(records); err != nil {
			return eris.Wrap(err, "write rows")
		}
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "close writer")
	}
	return nil
}

func writeCSV(f *os.File, records []model.Contract) error {
	w := csv.NewWriter(f)

	if err := w.Write(model.Columns); err != nil {
		return eris.Wrap(err, "write header")
	}
	for i := range records {
		if err := w.Write(csvRow(&records[i])); err != nil {
			return eris.Wrap(err, "write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush")
}

func csvRow(c *model.Contract) []string {
	return []string{
		c.UniqueKey,
		c.RecipientName,
		c.AwardingAgencyName,
		fmtAmount(c.CurrentTotalValue),
		fmtAmount(c.PotentialTotalValue),
		fmtDate(c.ActionDate),
		fmtDate(c.EndDate),
		fmtText(c.TransactionDescription),
		fmtText(c.BaseDescription),
		fmtText(c.RecipientDUNS),
		fmtText(c.AwardingAgencyCode),
		fmtText(c.AwardingSubAgencyName),
		fmtText(c.AwardType),
		fmtText(c.NAICSCode),
		fmtText(c.NAICSDescription),
	}
}

func fmtAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateFormat)
}

func fmtText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
