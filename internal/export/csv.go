package export

import (
	"bytes"
	"io"
	"strings"
)

// WriteCSV writes every section as a plain title line, a header row and one
// row per record, separating sections with a blank line. Every field is
// double-quoted with inner quotes doubled.
func WriteCSV(w io.Writer, sections []Section) error {
	for i, s := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := writeSection(w, s); err != nil {
			return err
		}
	}
	return nil
}

// CSV returns the whole history as a string.
func CSV(sections []Section) string {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, sections)
	return buf.String()
}

func writeSection(w io.Writer, s Section) error {
	if _, err := io.WriteString(w, s.Title+"\n"); err != nil {
		return err
	}
	if err := writeRow(w, s.Header); err != nil {
		return err
	}
	for _, row := range s.Rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = CellString(v)
		}
		if err := writeRow(w, fields); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(f))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
