// Package parser converts raw delimited text into header-keyed rows. It is
// deliberately forgiving: a malformed row never aborts the rest of the file,
// and input that is not tabular at all yields an empty result rather than an
// error, so one corrupt resource cannot block a load cycle.
package parser

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

// Row is one parsed record, column values looked up by header name. A column
// absent from a row reads as the empty string.
type Row map[string]string

// Get returns the trimmed value for a header name.
func (r Row) Get(name string) string {
	return strings.TrimSpace(r[name])
}

// Parse reads delimited text whose first non-empty line is the header. Rows
// shorter than the header leave the missing columns empty; longer rows drop
// the extras. A header with no data rows yields an empty non-nil slice; input
// with no readable header at all yields nil.
func Parse(raw []byte) []Row {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := []Row{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// skip the malformed row, keep going
			continue
		}
		if isEmpty(record) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func isEmpty(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
