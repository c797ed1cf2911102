// Package fai reads samtools FASTA index files so sequence lengths can be
// taken from an index instead of parsing the FASTA itself.
package fai

import (
	"errors"
	"fmt"
	"github.com/cgermain/grouplen/seqlen"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed is returned for index lines that do not have five numeric-tailed columns.
var ErrMalformed = errors.New("malformed fai index")

// Index holds the entries of one .fai file, in file order. A name repeated
// within the index keeps every entry.
type Index struct {
	seqs []seqOffset
}

// Names returns the sequence names in the order they appear in the index.
func (idx Index) Names() []string {
	ans := make([]string, len(idx.seqs))
	for i := range idx.seqs {
		ans[i] = idx.seqs[i].name
	}
	return ans
}

// AddLengths stores the length of each indexed sequence not already in
// lengths and returns the names that were, in index order. A name repeated
// inside the index is returned for each repeat.
func (idx Index) AddLengths(lengths seqlen.Lengths) []string {
	var dups []string
	for i := range idx.seqs {
		if lengths.Has(idx.seqs[i].name) {
			dups = append(dups, idx.seqs[i].name)
			continue
		}
		lengths[idx.seqs[i].name] = idx.seqs[i].len
	}
	return dups
}

// seqOffset is one line of a fai file.
type seqOffset struct {
	name         string // Name of this sequence
	len          int    // Total length of this sequence, in bases
	offset       int    // Offset within the FASTA file of this sequence's first base
	basesPerLine int    // The number of bases on each line
	bytesPerLine int    // The number of bytes in each line, including the newline
}

// IndexFilename is where samtools faidx writes the index for fastaFile.
func IndexFilename(fastaFile string) string {
	return fastaFile + ".fai"
}

// HasIndex reports whether fastaFile has a regular index file next to it.
func HasIndex(fastaFile string) bool {
	info, err := os.Stat(IndexFilename(fastaFile))
	return err == nil && info.Mode().IsRegular()
}

// ReadIndex reads a fai index file.
func ReadIndex(filename string) (Index, error) {
	file := fileio.EasyOpen(filename)
	defer func() {
		exception.PanicOnErr(file.Close())
	}()

	var answer Index
	var curr seqOffset
	var line string
	var col []string
	var done bool
	var err error
	var lineNum int
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		lineNum++
		col = strings.Split(line, "\t")
		if len(col) != 5 {
			return Index{}, fmt.Errorf("%w: %s line %d: expected 5 columns, found %d", ErrMalformed, filename, lineNum, len(col))
		}

		curr.name = col[0]
		if curr.len, err = strconv.Atoi(col[1]); err != nil {
			return Index{}, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, filename, lineNum, err)
		}
		if curr.offset, err = strconv.Atoi(col[2]); err != nil {
			return Index{}, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, filename, lineNum, err)
		}
		if curr.basesPerLine, err = strconv.Atoi(col[3]); err != nil {
			return Index{}, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, filename, lineNum, err)
		}
		if curr.bytesPerLine, err = strconv.Atoi(col[4]); err != nil {
			return Index{}, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, filename, lineNum, err)
		}

		answer.seqs = append(answer.seqs, curr)
	}
	return answer, nil
}
