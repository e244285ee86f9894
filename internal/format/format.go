// Package format renders a collected result set into an output
// encoding with a caller-chosen field order.
package format

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"pwcli/internal/patchwork"
)

// Encoding selects the output byte format.
type Encoding string

// Supported encodings.
const (
	EncodingText Encoding = "text"
	EncodingCSV  Encoding = "csv"
)

// NAMarker is the explicit empty-value marker for the text encoding.
// Absent fields render as this, never as a missing column.
const NAMarker = "NA"

// DefaultFields is the field order used when the caller gives none.
var DefaultFields = []string{
	patchwork.FieldID,
	patchwork.FieldDate,
	patchwork.FieldState,
	patchwork.FieldSubmitter,
	patchwork.FieldName,
}

// OutputSpec names the fields to render, their order, and the
// encoding. Owned by the Render invocation only.
type OutputSpec struct {
	Fields   []string
	Encoding Encoding
}

// FormatError reports an output spec that cannot be rendered: unknown
// field names or an unknown encoding. Raised before the first row is
// written, never mid-stream.
type FormatError struct {
	Fields   []string // unknown field names, if any
	Encoding Encoding // unknown encoding, if Fields is empty
}

func (e *FormatError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("unknown fields: %s", strings.Join(e.Fields, ", "))
	}

	return fmt.Sprintf("unknown encoding: %q", e.Encoding)
}

// ParseEncoding validates a user-supplied encoding name.
func ParseEncoding(name string) (Encoding, error) {
	switch Encoding(strings.ToLower(name)) {
	case EncodingText:
		return EncodingText, nil
	case EncodingCSV:
		return EncodingCSV, nil
	default:
		return "", &FormatError{Encoding: Encoding(name)}
	}
}

// Render writes the result set to w per spec. The whole spec is
// validated up front so nothing is written on a bad spec.
func Render(w io.Writer, patches []patchwork.Patch, spec OutputSpec) error {
	fields := spec.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}

	var unknown []string

	for _, f := range fields {
		if !patchwork.IsField(f) {
			unknown = append(unknown, f)
		}
	}

	if len(unknown) > 0 {
		return &FormatError{Fields: unknown}
	}

	switch spec.Encoding {
	case EncodingText, "":
		return renderText(w, patches, fields)
	case EncodingCSV:
		return renderCSV(w, patches, fields)
	default:
		return &FormatError{Encoding: spec.Encoding}
	}
}

// renderText writes fixed-width columns: a header row, a dashes row,
// then one row per patch. Column widths fit the widest value; absent
// values render the NA marker so every row has every column.
func renderText(w io.Writer, patches []patchwork.Patch, fields []string) error {
	rows := make([][]string, 0, len(patches))

	for i := range patches {
		row := make([]string, len(fields))

		for j, f := range fields {
			val, _ := patches[i].Field(f)
			if val == "" {
				val = NAMarker
			}

			row[j] = val
		}

		rows = append(rows, row)
	}

	widths := make([]int, len(fields))
	for i, f := range fields {
		widths[i] = len(headerLabel(f))
	}

	for _, row := range rows {
		for i, val := range row {
			if len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	writeRow := func(cells []string) error {
		var b strings.Builder

		for i, cell := range cells {
			if i == len(cells)-1 {
				// Last column stays unpadded to avoid trailing spaces.
				b.WriteString(cell)

				break
			}

			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-len(cell)+2))
		}

		b.WriteString("\n")

		_, err := io.WriteString(w, b.String())

		return err
	}

	header := make([]string, len(fields))
	dashes := make([]string, len(fields))

	for i, f := range fields {
		header[i] = headerLabel(f)
		dashes[i] = strings.Repeat("-", len(header[i]))
	}

	if err := writeRow(header); err != nil {
		return err
	}

	if err := writeRow(dashes); err != nil {
		return err
	}

	for _, row := range rows {
		if err := writeRow(row); err != nil {
			return err
		}
	}

	return nil
}

// renderCSV writes RFC-4180 output: a header row in field order, then
// values verbatim. encoding/csv handles quoting and quote doubling,
// so a parse of the output reproduces the values exactly. Absent
// values stay empty here; NA is a text-encoding convention only.
func renderCSV(w io.Writer, patches []patchwork.Patch, fields []string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(fields); err != nil {
		return err
	}

	row := make([]string, len(fields))

	for i := range patches {
		for j, f := range fields {
			row[j], _ = patches[i].Field(f)
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// headerLabel maps a field name to its column heading.
func headerLabel(field string) string {
	switch field {
	case patchwork.FieldID:
		return "ID"
	case patchwork.FieldDate:
		return "Date"
	case patchwork.FieldName:
		return "Name"
	case patchwork.FieldSubmitter:
		return "Submitter"
	case patchwork.FieldState:
		return "State"
	case patchwork.FieldDelegate:
		return "Delegate"
	case patchwork.FieldProject:
		return "Project"
	case patchwork.FieldArchived:
		return "Archived"
	case patchwork.FieldMsgID:
		return "MessageId"
	case patchwork.FieldCommitRef:
		return "CommitRef"
	default:
		return field
	}
}
