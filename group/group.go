// Package group joins a tab separated group membership table with sequence
// lengths and writes the result as CSV.
package group

import (
	"bufio"
	"errors"
	"github.com/cgermain/grouplen/seqlen"
	"io"
	"strconv"
	"strings"
)

// Header is the first record of every report.
var Header = []string{"Primary", "Secondary", "Sequence Length"}

// first column holding a secondary label; column 1 is not read
const firstSecondary int = 2

// Row is one line of the report. Secondary is empty for the primary's own row.
type Row struct {
	Primary   string
	Secondary string
	Length    int
}

// Stats counts what happened during a Join.
type Stats struct {
	Rows        int // data rows read, header excluded
	Primaries   int // rows emitted for primaries
	Secondaries int // rows emitted for secondaries
	Unmatched   int // labels whose ID had no length
}

// Emitted is the number of report rows produced.
func (s Stats) Emitted() int {
	return s.Primaries + s.Secondaries
}

// ID returns the accession part of a label: everything before the first space.
func ID(label string) string {
	id, _, _ := strings.Cut(label, " ")
	return id
}

// Join reads the group table from r, skipping its header, and calls emit for
// every primary and secondary label whose ID is in lengths, in table order.
func Join(r io.Reader, lengths seqlen.Lengths, emit func(Row)) (Stats, error) {
	var stats Stats
	reader := NewTableReader(r)

	_, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}

	var row []string
	var primary string
	var length, col int
	var found bool
	for row, err = reader.Read(); err == nil; row, err = reader.Read() {
		stats.Rows++
		primary = row[0]
		if length, found = lengths[ID(primary)]; found {
			emit(Row{Primary: primary, Length: length})
			stats.Primaries++
		} else {
			stats.Unmatched++
		}

		for col = firstSecondary; col < len(row); col++ {
			if length, found = lengths[ID(row[col])]; found {
				emit(Row{Primary: primary, Secondary: row[col], Length: length})
				stats.Secondaries++
			} else {
				stats.Unmatched++
			}
		}
	}

	if !errors.Is(err, io.EOF) {
		return stats, err
	}
	return stats, nil
}

// Writer writes report rows as CSV with CRLF line endings. Fields are quoted
// only when they contain a comma, a quote, '\r' or '\n'; quotes are doubled
// and line breaks inside a quoted field are written unchanged.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) WriteHeader() error {
	return w.writeRecord(Header...)
}

func (w *Writer) Write(r Row) error {
	return w.writeRecord(r.Primary, r.Secondary, strconv.Itoa(r.Length))
}

// Flush writes any buffered records to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) writeRecord(fields ...string) error {
	for i, f := range fields {
		if i > 0 {
			w.w.WriteByte(',')
		}
		if strings.ContainsAny(f, ",\"\r\n") {
			w.w.WriteByte('"')
			w.w.WriteString(strings.ReplaceAll(f, `"`, `""`))
			w.w.WriteByte('"')
		} else {
			w.w.WriteString(f)
		}
	}
	_, err := w.w.WriteString("\r\n")
	return err
}
