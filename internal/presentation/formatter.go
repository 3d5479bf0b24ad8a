package presentation

import (
	"encoding/json"
	"fmt"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatSnapshots formats a list of snapshots as JSON
func (f *Formatter) FormatSnapshots(snapshots []SnapshotDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshots)
}

// FormatRecords formats a snapshot's records as JSON
func (f *Formatter) FormatRecords(records []RecordDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

// FormatDiff writes a unified line diff as plain text
func (f *Formatter) FormatDiff(diff string) error {
	_, err := fmt.Fprint(f.writer, diff)
	return err
}

// FormatResult formats an arbitrary result as JSON
func (f *Formatter) FormatResult(result any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
