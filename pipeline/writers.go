package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-price-compare/models"
)

// OutputWriter exports comparison results.
type OutputWriter interface {
	Write(result *models.ComparisonResult) error
	Close() error
	Validate() error
}

// ExportRow is one exported offer, flagged when it is the best deal of its
// comparison.
type ExportRow struct {
	Query string `json:"query"`
	models.Offer
	BestDeal bool `json:"best_deal"`
	Degraded bool `json:"degraded,omitempty"`
}

// Rows flattens result into export rows in result order.
func Rows(result *models.ComparisonResult) []ExportRow {
	if result == nil {
		return nil
	}
	rows := make([]ExportRow, len(result.Results))
	for i := range result.Results {
		rows[i] = ExportRow{
			Query:    result.PerfumeName,
			Offer:    result.Results[i],
			BestDeal: result.BestDeal == &result.Results[i],
			Degraded: result.Degraded,
		}
	}
	return rows
}

var csvHeader = []string{"query", "site", "price", "size", "price_per_ml", "url", "stock_status", "image_url", "best_deal"}

func (r ExportRow) record() []string {
	return []string{
		r.Query,
		r.Site,
		formatFloat(r.Price),
		valueOrEmpty(r.Size),
		formatFloat(r.PricePerML),
		r.URL,
		r.StockStatus,
		valueOrEmpty(r.ImageURL),
		strconv.FormatBool(r.BestDeal),
	}
}

// exportFile is the file handle and row count shared by the writers.
type exportFile struct {
	mu   sync.Mutex
	file *os.File
	rows int
	kind string
}

func createExportFile(kind, filename string) (*exportFile, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create %s file: %w", kind, err)
	}
	return &exportFile{file: f, kind: kind}, nil
}

// Validate fails when no rows were written or the file is empty on disk.
func (e *exportFile) Validate() error {
	e.mu.Lock()
	rows := e.rows
	e.mu.Unlock()

	if rows == 0 {
		return fmt.Errorf("%s export has no rows", e.kind)
	}
	info, err := os.Stat(e.file.Name())
	if err != nil {
		return fmt.Errorf("stat %s file: %w", e.kind, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s file is empty", e.kind)
	}
	return nil
}

// CSVWriter writes one CSV record per offer.
type CSVWriter struct {
	*exportFile
	writer *csv.Writer
}

// NewCSVWriter creates filename and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	ef, err := createExportFile("csv", filename)
	if err != nil {
		return nil, err
	}
	cw := &CSVWriter{exportFile: ef, writer: csv.NewWriter(ef.file)}
	if err := cw.flush(csvHeader); err != nil {
		ef.file.Close()
		return nil, err
	}
	return cw, nil
}

func (cw *CSVWriter) flush(records ...[]string) error {
	if err := cw.writer.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Write appends the offers of result. Absent values are empty cells.
func (cw *CSVWriter) Write(result *models.ComparisonResult) error {
	rows := Rows(result)
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	if len(records) == 0 {
		return nil
	}
	if err := cw.flush(records...); err != nil {
		return err
	}
	cw.rows += len(records)
	return nil
}

// Close flushes and closes the file.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	return errors.Join(cw.writer.Error(), cw.file.Close())
}

// JSONWriter writes newline-delimited JSON rows.
type JSONWriter struct {
	*exportFile
	buf     *bufio.Writer
	encoder *json.Encoder
}

// NewJSONWriter creates filename for JSONL output.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	ef, err := createExportFile("json", filename)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(ef.file)
	return &JSONWriter{exportFile: ef, buf: buf, encoder: json.NewEncoder(buf)}, nil
}

// Write appends one JSON line per offer of result.
func (jw *JSONWriter) Write(result *models.ComparisonResult) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, row := range Rows(result) {
		if err := jw.encoder.Encode(row); err != nil {
			return fmt.Errorf("encode json row: %w", err)
		}
		jw.rows++
	}
	if err := jw.buf.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return errors.Join(jw.buf.Flush(), jw.file.Close())
}

// NewWriter returns the writer for format: csv, json, or dual. Dual
// writes CSV to filename and JSONL next to it.
func NewWriter(format, filename string) (OutputWriter, error) {
	switch format {
	case "csv":
		return NewCSVWriter(filename)
	case "json":
		return NewJSONWriter(filename)
	case "dual":
		ext := filepath.Ext(filename)
		return NewDualWriter(filename, filename[:len(filename)-len(ext)]+".json")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
