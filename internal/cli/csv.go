package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "pricelevels/internal/errors"
	"pricelevels/internal/models"
)

// csvRow is one raw CSV record. Columns are matched case-insensitively;
// unknown columns such as open are ignored.
type csvRow struct {
	Timestamp string `csv:"timestamp"`
	Date      string `csv:"date"`
	Time      string `csv:"time"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    string `csv:"volume"`
}

var csvTimeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// ParseCandlesCSV reads bars from CSV with a header row naming at least
// close. Blank high, low or close cells become gaps; a blank volume is
// missing volume. Rows are returned sorted by time.
func ParseCandlesCSV(r io.Reader) ([]models.Candle, error) {
	data, err := normalizeHeader(r)
	if err != nil {
		return nil, err
	}
	if !hasColumn(headerOf(data), "close") {
		return nil, apperrors.NewValidationError("csv", "header", "missing close column", apperrors.ErrInvalidInput)
	}

	var rows []*csvRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, apperrors.NewValidationError("csv", "", "malformed CSV", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		c := models.Candle{}
		if c.Timestamp, err = parseCSVTime(row.stamp()); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d timestamp", line), row.stamp(), err.Error(), apperrors.ErrInvalidInput)
		}
		fields := []struct {
			name string
			raw  string
			dst  *float64
		}{
			{"high", row.High, &c.High},
			{"low", row.Low, &c.Low},
			{"close", row.Close, &c.Close},
			{"volume", row.Volume, &c.Volume},
		}
		for _, f := range fields {
			v, err := parseCSVFloat(f.raw)
			if err != nil {
				return nil, apperrors.NewValidationError(fmt.Sprintf("line %d %s", line, f.name), f.raw, "not a finite number", apperrors.ErrInvalidInput)
			}
			*f.dst = v
		}
		// Close-only files still feed the engine.
		if row.High == "" && row.Low == "" {
			c.High, c.Low = c.Close, c.Close
		}
		candles = append(candles, c)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

func (r *csvRow) stamp() string {
	switch {
	case r.Timestamp != "":
		return r.Timestamp
	case r.Date != "" && r.Time != "":
		return r.Date + " " + r.Time
	case r.Date != "":
		return r.Date
	}
	return r.Time
}

// normalizeHeader lowercases and trims the header cells.
func normalizeHeader(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	header = strings.TrimPrefix(header, "\ufeff")
	if strings.TrimSpace(header) == "" {
		return nil, apperrors.NewValidationError("csv", "", "empty input", apperrors.ErrEmptySeries)
	}
	cells := strings.Split(strings.TrimRight(header, "\r\n"), ",")
	for i, cell := range cells {
		cells[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("reading CSV body: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(strings.Join(cells, ","))
	buf.WriteByte('\n')
	buf.Write(rest)
	return buf.Bytes(), nil
}

func hasColumn(header []byte, name string) bool {
	for _, cell := range strings.Split(string(header), ",") {
		if cell == name {
			return true
		}
	}
	return false
}

func headerOf(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}

func parseCSVTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp format")
}

func parseCSVFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("infinite value %q", raw)
	}
	return v, nil
}
