package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"brokerlink/internal/domain"
)

var _ BarStore = (*ParquetStore)(nil)

// ParquetStore implements BarStore using Parquet files on disk, one file per
// (provider, symbol, timeframe) series:
//
//	<DataDir>/bars/<provider>/<SYMBOL>/<TF>.parquet
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// BarRecord is the Parquet schema for stored bars.
type BarRecord struct {
	Timestamp     int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open          float64 `parquet:"open"`
	High          float64 `parquet:"high"`
	Low           float64 `parquet:"low"`
	Close         float64 `parquet:"close"`
	Volume        float64 `parquet:"volume"`
	AdjustedClose float64 `parquet:"adjusted_close"`
	Dividends     float64 `parquet:"dividends"`
	Splits        float64 `parquet:"splits"`
}

// WriteBars merges bars into the series file, deduplicating by timestamp
// with incoming records winning.
func (s *ParquetStore) WriteBars(_ context.Context, provider, symbol string, tf domain.Timeframe, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	path := s.barPath(provider, symbol, tf)

	existing, _ := readParquetFile[BarRecord](path)
	merged := mergeBarRecords(existing, toRecords(bars))

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing bars for %s/%s/%s: %w", provider, symbol, tf, err)
	}
	return nil
}

// ReadBars reads the stored series and returns the bars inside [start, end].
func (s *ParquetStore) ReadBars(_ context.Context, provider, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	records, err := readParquetFile[BarRecord](s.barPath(provider, symbol, tf))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var bars []domain.Bar
	for _, r := range records {
		if r.Timestamp < start.UnixMilli() || r.Timestamp > end.UnixMilli() {
			continue
		}
		bars = append(bars, domain.Bar{
			Timestamp:     r.Timestamp,
			Open:          r.Open,
			High:          r.High,
			Low:           r.Low,
			Close:         r.Close,
			Volume:        r.Volume,
			AdjustedClose: r.AdjustedClose,
			Dividends:     r.Dividends,
			Splits:        r.Splits,
		})
	}
	return bars, nil
}

// ListSymbols lists symbols with stored data for a provider.
func (s *ParquetStore) ListSymbols(_ context.Context, provider string) ([]string, error) {
	dir := filepath.Join(s.DataDir, "bars", strings.ToLower(provider))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// barPath returns the filesystem path for one series file.
func (s *ParquetStore) barPath(provider, symbol string, tf domain.Timeframe) string {
	return filepath.Join(s.DataDir, "bars",
		strings.ToLower(provider), strings.ToUpper(symbol), string(tf)+".parquet")
}

func toRecords(bars []domain.Bar) []BarRecord {
	records := make([]BarRecord, 0, len(bars))
	for _, b := range bars {
		records = append(records, BarRecord{
			Timestamp:     b.Timestamp,
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			Volume:        b.Volume,
			AdjustedClose: b.AdjustedClose,
			Dividends:     b.Dividends,
			Splits:        b.Splits,
		})
	}
	return records
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates by timestamp, preferring incoming records,
// and sorts ascending.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[int64]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}
