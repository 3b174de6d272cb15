package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datasmith-cli/internal/schema"
	"github.com/KaramelBytes/datasmith-cli/internal/utils"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Table is a materialised dataset with its column order.
type Table struct {
	Name    string
	Columns []string
	Records []Record
}

// LoadOptions controls how files are read into records.
type LoadOptions struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Schema drives column coercion of text inputs.
	Schema schema.Options
}

// DefaultLoadOptions coerces using every value of a column.
func DefaultLoadOptions() LoadOptions {
	opt := schema.DefaultOptions()
	opt.SampleSize = 0
	return LoadOptions{Schema: opt}
}

// LoadFile reads a .csv, .tsv or .json file.
func LoadFile(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var t *Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		t, err = ReadJSON(f, opt)
	case ".tsv":
		if opt.Delimiter == 0 {
			opt.Delimiter = '\t'
		}
		t, err = ReadCSV(f, opt)
	default:
		t, err = ReadCSV(f, opt)
	}
	if err != nil {
		return nil, err
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// ReadCSV reads a header row followed by data rows. Blank cells become nil and
// columns are coerced to numbers or booleans when every value fits.
func ReadCSV(r io.Reader, opt LoadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	t := &Table{Columns: cols}
	for {
		row, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Records)+1, err)
		}
		if opt.MaxRows > 0 && len(t.Records) >= opt.MaxRows {
			break
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				rec[c] = nil
				continue
			}
			rec[c] = strings.TrimSpace(row[i])
		}
		t.Records = append(t.Records, rec)
	}
	Coerce(t.Records, t.Columns, opt.Schema)
	return t, nil
}

// ReadJSON reads an array of objects. Numbers keep their integer or float form.
func ReadJSON(r io.Reader, opt LoadOptions) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	t := &Table{}
	for i, m := range raw {
		if opt.MaxRows > 0 && i >= opt.MaxRows {
			break
		}
		rec := make(Record, len(m))
		for k, v := range m {
			rec[k] = fromJSON(v)
		}
		t.Records = append(t.Records, rec)
	}
	t.Columns = Columns(t.Records)
	return t, nil
}

func fromJSON(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return s
}

// Coerce converts string values in the given columns to int64, float64 or bool
// according to the inferred schema. Values that fail to convert stay strings.
func Coerce(records []Record, columns []string, opt schema.Options) schema.Schema {
	s := schema.Schema{}
	for _, c := range columns {
		col := schema.InferValues(c, Values(records, c), opt)
		s.Columns = append(s.Columns, col)
		for _, r := range records {
			str, ok := r[c].(string)
			if !ok {
				continue
			}
			r[c] = coerceValue(str, col.Kind)
		}
	}
	return s
}

func coerceValue(s string, kind schema.Kind) any {
	switch kind {
	case schema.KindInteger:
		if n, ok := schema.ParseInteger(s); ok {
			return n
		}
		if f, ok := schema.ParseNumber(s); ok {
			return f
		}
	case schema.KindFloat:
		if f, ok := schema.ParseNumber(s); ok {
			return f
		}
	case schema.KindBoolean:
		if b, ok := schema.ParseBool(s); ok {
			return b
		}
	}
	return s
}

// FormatFor picks an output format from an explicit value or the file extension.
func FormatFor(path, format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			f = FormatJSON
		default:
			f = FormatCSV
		}
	}
	switch f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s (use csv|json)", format)
}

// WriteFile serialises records to path atomically.
func WriteFile(path, format string, columns []string, records []Record) error {
	f, err := FormatFor(path, format)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if f == FormatJSON {
		err = WriteJSON(&buf, records)
	} else {
		err = WriteCSV(&buf, columns, records)
	}
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// WriteCSV writes a header and one row per record. Columns present in records
// but missing from columns are appended.
func WriteCSV(w io.Writer, columns []string, records []Record) error {
	cols := MergeColumns(columns, records)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(cols))
	for _, r := range records {
		for i, c := range cols {
			v, ok := r[c]
			if !ok || v == nil {
				row[i] = ""
				continue
			}
			row[i] = FormatValue(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	b, err := utils.PrettyJSON(records)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
