// Package report accumulates defective statements and writes them as a
// spreadsheet or a JSON document.
package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/exploopio/statement-validator/pkg/compress"
	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/validate"
)

// SheetName is the worksheet holding the report table.
const SheetName = "Validate Statements"

// DefaultPath is where the report is written when no path is configured.
const DefaultPath = "output.xlsx"

// Headers are the report columns, in order.
var Headers = []string{
	"Vulnerability ID",
	"Error Repository",
	"Error Commit",
	"Error Commit Without a branch",
	"Error Branch",
	"Error PURL",
	"Error Log",
}

// Format is a report serialization.
type Format string

const (
	FormatXLSX     Format = "xlsx"
	FormatJSON     Format = "json"
	FormatJSONZstd Format = "json.zst"
	FormatJSONGzip Format = "json.gz"
)

// FormatFromPath picks the format from the file extension. Unknown extensions
// get the spreadsheet format.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	algorithm := compress.FromPath(lower)
	base := strings.TrimSuffix(strings.TrimSuffix(lower, ".zstd"), algorithm.Extension())
	if !strings.HasSuffix(base, ".json") {
		return FormatXLSX
	}

	switch algorithm {
	case compress.AlgorithmZSTD:
		return FormatJSONZstd
	case compress.AlgorithmGzip:
		return FormatJSONGzip
	default:
		return FormatJSON
	}
}

// Document is the JSON form of a report.
type Document struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Rows        []validate.Row `json:"rows"`
}

// Builder collects report rows. It is not safe for concurrent use.
type Builder struct {
	runID string
	rows  []validate.Row
	now   func() time.Time
	level compress.Level
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCompressionLevel sets the level used for compressed JSON reports.
// Levels outside the 1-9 scale are ignored.
func WithCompressionLevel(level compress.Level) BuilderOption {
	return func(b *Builder) {
		if level.Valid() {
			b.level = level
		}
	}
}

// NewBuilder creates an empty report. An empty runID gets a random one.
func NewBuilder(runID string, opts ...BuilderOption) *Builder {
	if runID == "" {
		runID = uuid.NewString()
	}
	b := &Builder{runID: runID, now: time.Now, level: compress.LevelDefault}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunID returns the identifier stamped on the serialized report.
func (b *Builder) RunID() string {
	return b.runID
}

// AddRow appends the result when it holds at least one error and reports
// whether a row was added.
func (b *Builder) AddRow(r *validate.Result) bool {
	if r == nil || !r.HasError() {
		return false
	}
	b.rows = append(b.rows, r.Finalize())
	return true
}

// Rows returns a copy of the collected rows.
func (b *Builder) Rows() []validate.Row {
	return append([]validate.Row(nil), b.rows...)
}

// Len returns the number of rows.
func (b *Builder) Len() int {
	return len(b.rows)
}

// Serialize writes the report to w.
func (b *Builder) Serialize(w io.Writer, format Format) error {
	switch format {
	case FormatXLSX, "":
		return b.writeXLSX(w)
	case FormatJSON:
		return b.writeJSON(w, compress.AlgorithmNone)
	case FormatJSONZstd:
		return b.writeJSON(w, compress.AlgorithmZSTD)
	case FormatJSONGzip:
		return b.writeJSON(w, compress.AlgorithmGzip)
	default:
		return errors.E(errors.KindInvalidInput, "report.Serialize", "unsupported format "+string(format))
	}
}

// Save writes the report to path in the format implied by its extension.
// A partially written file is removed.
func (b *Builder) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.E(errors.KindIO, "report.Save", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.E(errors.KindIO, "report.Save", err)
	}
	if err := b.Serialize(f, FormatFromPath(path)); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return errors.Wrap(err, "report.Save")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return errors.E(errors.KindIO, "report.Save", err)
	}
	return nil
}

func (b *Builder) writeXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.E(errors.KindInternal, "report.writeXLSX", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      SheetName,
		Identifier: b.runID,
		Created:    b.now().UTC().Format(time.RFC3339),
	}); err != nil {
		return errors.E(errors.KindInternal, "report.writeXLSX", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Headers); err != nil {
		return errors.E(errors.KindInternal, "report.writeXLSX", err)
	}
	for i, row := range b.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.E(errors.KindInternal, "report.writeXLSX", err)
		}
		cells := row.Cells()
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return errors.E(errors.KindInternal, "report.writeXLSX", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.E(errors.KindIO, "report.writeXLSX", err)
	}
	return nil
}

func (b *Builder) writeJSON(w io.Writer, algorithm compress.Algorithm) error {
	cw, err := compress.NewWriter(w, algorithm, b.level)
	if err != nil {
		return errors.E(errors.KindInternal, "report.writeJSON", err)
	}

	doc := Document{RunID: b.runID, GeneratedAt: b.now().UTC(), Rows: b.rows}
	if doc.Rows == nil {
		doc.Rows = []validate.Row{}
	}
	enc := json.NewEncoder(cw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = cw.Close()
		return errors.E(errors.KindIO, "report.writeJSON", err)
	}
	if err := cw.Close(); err != nil {
		return errors.E(errors.KindIO, "report.writeJSON", err)
	}
	return nil
}

// ReadJSON decodes a JSON report, decompressing it as format requires.
func ReadJSON(r io.Reader, format Format) (*Document, error) {
	algorithm := compress.AlgorithmNone
	switch format {
	case FormatJSONZstd:
		algorithm = compress.AlgorithmZSTD
	case FormatJSONGzip:
		algorithm = compress.AlgorithmGzip
	case FormatJSON:
	default:
		return nil, errors.E(errors.KindInvalidInput, "report.ReadJSON", "not a JSON format: "+string(format))
	}

	cr, err := compress.NewReader(r, algorithm)
	if err != nil {
		return nil, errors.E(errors.KindInvalidInput, "report.ReadJSON", err)
	}
	defer cr.Close()

	var doc Document
	if err := json.NewDecoder(cr).Decode(&doc); err != nil {
		return nil, errors.E(errors.KindInvalidInput, "report.ReadJSON", err)
	}
	return &doc, nil
}
