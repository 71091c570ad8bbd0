package pipeline

import (
	"errors"
	"fmt"

	"github.com/aluiziolira/go-price-compare/models"
)

// MultiWriter fans every result out to several writers.
type MultiWriter struct {
	writers []OutputWriter
	names   []string
}

// NewDualWriter exports to CSV and JSONL at the same time.
func NewDualWriter(csvFilename, jsonFilename string) (*MultiWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, err
	}
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, err
	}
	return &MultiWriter{
		writers: []OutputWriter{csvWriter, jsonWriter},
		names:   []string{"csv", "json"},
	}, nil
}

func (mw *MultiWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for i, w := range mw.writers {
		if err := fn(w); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", mw.names[i], op, err))
		}
	}
	return errors.Join(errs...)
}

// Write writes result to every writer.
func (mw *MultiWriter) Write(result *models.ComparisonResult) error {
	return mw.each("write", func(w OutputWriter) error { return w.Write(result) })
}

// Close closes every writer.
func (mw *MultiWriter) Close() error {
	return mw.each("close", OutputWriter.Close)
}

// Validate validates every output.
func (mw *MultiWriter) Validate() error {
	return mw.each("validation", OutputWriter.Validate)
}
