package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
)

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// dateColumns are accepted names for the date column, in priority order.
var dateColumns = []string{"date", "open_time", "time", "timestamp"}

// NormalizeColumn lower-cases a header and strips any dotted prefix,
// so "AAPL.Open" becomes "open".
func NormalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// ParseBarDate parses a date cell using the supported layouts.
func ParseBarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date '%s'", s)
}

// ReadBarsFromCSV reads bars from CSV data with a header row. Extra columns are ignored.
func ReadBarsFromCSV(r io.Reader) ([]domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing CSV header: %w", ports.ErrInvalidInput)
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeColumn(h)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	dateCol := -1
	for _, name := range dateColumns {
		if i, ok := cols[name]; ok {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("no date column in header %v: %w", header, ports.ErrInvalidInput)
	}
	priceCols := make([]int, 0, 4)
	for _, name := range []string{"open", "high", "low", "close"} {
		i, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("missing '%s' column in header %v: %w", name, header, ports.ErrInvalidInput)
		}
		priceCols = append(priceCols, i)
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}

		date, err := ParseBarDate(record[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %w", line, ports.ErrInvalidInput, err)
		}
		var prices [4]float64
		for j, col := range priceCols {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing price '%s': %w: %w", line, record[col], ports.ErrInvalidInput, err)
			}
			prices[j] = v
		}
		bars = append(bars, domain.Bar{
			Date:  date,
			Open:  prices[0],
			High:  prices[1],
			Low:   prices[2],
			Close: prices[3],
		})
	}
	return bars, nil
}

// ReadBarsFromFile reads bars from a CSV file.
func ReadBarsFromFile(filename string) ([]domain.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening bars file '%s': %w", filename, err)
	}
	defer file.Close()

	bars, err := ReadBarsFromCSV(file)
	if err != nil {
		return nil, fmt.Errorf("reading bars file '%s': %w", filename, err)
	}
	return bars, nil
}

// WriteBarsToCSV writes bars with a date,open,high,low,close header,
// creating the parent directory if needed.
func WriteBarsToCSV(bars []domain.Bar, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory '%s': %w", dir, err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteBars(file, bars)
}

// WriteBars writes bars as CSV to w.
func WriteBars(w io.Writer, bars []domain.Bar) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"date", "open", "high", "low", "close"}); err != nil {
		return err
	}
	for _, b := range bars {
		err := writer.Write([]string{
			b.Date.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
