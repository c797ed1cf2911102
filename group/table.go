package group

import (
	"bufio"
	"io"
	"strings"
)

type parseState int

const (
	startField parseState = iota
	inField
	inQuoted
	quoteInQuoted
)

// TableReader splits a tab separated group table into records using the
// excel-tab quoting rules: a '"' opens a quoted field only at the start of a
// field, "" inside quotes is a literal quote, and characters following the
// closing quote up to the next tab are kept as part of the field. Quoted
// fields may span lines. "\r\n" and lone '\r' end a line like '\n'.
type TableReader struct {
	r     *bufio.Reader
	field strings.Builder
}

func NewTableReader(r io.Reader) *TableReader {
	return &TableReader{r: bufio.NewReader(r)}
}

// Read returns the next record, skipping blank lines. It returns io.EOF once
// the input is exhausted.
func (t *TableReader) Read() ([]string, error) {
	for {
		record, err := t.readRecord()
		if err != nil {
			return nil, err
		}
		if len(record) > 0 {
			return record, nil
		}
	}
}

// readRecord returns an empty record for a blank line.
func (t *TableReader) readRecord() ([]string, error) {
	var record []string
	var c rune
	var err error
	state := startField
	started := false
	t.field.Reset()

	for {
		c, err = t.readRune()
		if err == io.EOF && started {
			// end of input closes the last line, even inside quotes
			return append(record, t.field.String()), nil
		}
		if err != nil {
			return nil, err
		}
		if c == '\n' && !started {
			return nil, nil
		}
		started = true

		switch state {
		case startField:
			switch c {
			case '\n':
				return append(record, ""), nil
			case '\t':
				record = append(record, "")
			case '"':
				state = inQuoted
			default:
				t.field.WriteRune(c)
				state = inField
			}
		case inField:
			switch c {
			case '\n':
				return append(record, t.field.String()), nil
			case '\t':
				record = append(record, t.field.String())
				t.field.Reset()
				state = startField
			default:
				t.field.WriteRune(c)
			}
		case inQuoted:
			if c == '"' {
				state = quoteInQuoted
			} else {
				t.field.WriteRune(c)
			}
		case quoteInQuoted:
			switch c {
			case '"':
				t.field.WriteRune('"')
				state = inQuoted
			case '\n':
				return append(record, t.field.String()), nil
			case '\t':
				record = append(record, t.field.String())
				t.field.Reset()
				state = startField
			default:
				t.field.WriteRune(c)
				state = inField
			}
		}
	}
}

// readRune reads one rune, folding "\r\n" and '\r' into '\n'.
func (t *TableReader) readRune() (rune, error) {
	c, _, err := t.r.ReadRune()
	if err != nil || c != '\r' {
		return c, err
	}
	next, _, err := t.r.ReadRune()
	if err == nil && next != '\n' {
		err = t.r.UnreadRune()
	}
	if err != nil && err != io.EOF {
		return 0, err
	}
	return '\n', nil
}
