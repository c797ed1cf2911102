// Package seqlen extracts sequence lengths from FASTA files.
package seqlen

import (
	"fmt"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Record pattern. Group 1 is the identifier, group 2 the rest of the header
// line and group 3 the sequence body up to the next '>' or end of input.
// Whitespace is the Unicode set: ASCII \s plus \v, the \x1c-\x1f
// separators, NEL and the Z categories (NBSP, ideographic space, ...).
const recordPattern string = `>([^\s\v\x1c-\x1f\x85\p{Z}]+)(.*[\s\v\x1c-\x1f\x85\p{Z}])([^>]*)`

// DuplicateMessage prefixes the diagnostic written for each repeated identifier.
const DuplicateMessage string = "Duplicate sequence found when reading FASTA files: "

// Lengths maps a sequence identifier to the number of sequence characters in its record.
type Lengths map[string]int

// Has reports whether id has a recorded length.
func (l Lengths) Has(id string) bool {
	_, found := l[id]
	return found
}

// Extractor finds FASTA records in text and records their lengths.
type Extractor struct {
	pattern *regexp.Regexp
}

// newlines converts the line endings a text-mode read would translate.
var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func NewExtractor() *Extractor {
	return &Extractor{pattern: regexp.MustCompile(recordPattern)}
}

// Add scans text for FASTA records and stores the length of each record
// whose identifier is not yet in lengths. Only newline characters are removed
// before counting; spaces and tabs in the body count toward the length.
// The identifiers that were already present are returned in the order seen.
func (e *Extractor) Add(text string, lengths Lengths) []string {
	var dups []string
	var id, body string
	for _, m := range e.pattern.FindAllStringSubmatchIndex(text, -1) {
		id = text[m[2]:m[3]]
		if lengths.Has(id) {
			dups = append(dups, id)
			continue
		}
		body = text[m[6]:m[7]]
		lengths[id] = utf8.RuneCountInString(strings.ReplaceAll(body, "\n", ""))
	}
	return dups
}

// ReadFile reads a whole FASTA file, which may be gzipped, and passes it to Add.
func (e *Extractor) ReadFile(filename string, lengths Lengths) []string {
	file := fileio.EasyOpen(filename)
	b, err := io.ReadAll(file)
	exception.PanicOnErr(err)
	err = file.Close()
	exception.PanicOnErr(err)
	return e.Add(newlines.Replace(string(b)), lengths)
}

// Extract builds a single Lengths from all files, in order. The first length
// seen for an identifier is kept and a line is written to diag for every repeat.
func (e *Extractor) Extract(filenames []string, diag io.Writer) Lengths {
	lengths := make(Lengths)
	for _, filename := range filenames {
		ReportDuplicates(diag, e.ReadFile(filename, lengths))
	}
	return lengths
}

// ReportDuplicates writes one diagnostic line per duplicated identifier.
func ReportDuplicates(diag io.Writer, dups []string) {
	for _, id := range dups {
		fmt.Fprintln(diag, DuplicateMessage+id)
	}
}
