// Package grouplen combines group membership tables with sequence lengths
// from FASTA files into a CSV report.
package grouplen

import (
	"errors"
	"fmt"
	"github.com/cgermain/grouplen/fai"
	"github.com/cgermain/grouplen/group"
	"github.com/cgermain/grouplen/seqlen"
	"github.com/cgermain/grouplen/summary"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OutputSuffix replaces the extension of the group file to name the report.
// The spelling is kept for existing downstream consumers.
const OutputSuffix string = "_lenghts.csv"

var (
	ErrGroupFile = errors.New("Error: Check that the group spreadsheet file path is correct")
	ErrFastaFile = errors.New("Error: Check that the FASTA file paths are correct")
)

type Options struct {
	Output   string // report path; derived from the group file when empty
	UseIndex bool   // take lengths from <fasta>.fai when one exists
	PlotFile string // optional length histogram figure
	Verbose  int
}

// OutputFilename places the report next to groupFile, named after its base
// name without the final extension. A leading dot does not start an extension.
func OutputFilename(groupFile string) string {
	path, err := filepath.Abs(groupFile)
	exception.PanicOnErr(err)
	dir, name := filepath.Split(path)
	ext := filepath.Ext(strings.TrimLeft(name, "."))
	return filepath.Join(dir, name[:len(name)-len(ext)]+OutputSuffix)
}

// Validate checks that the group file and every FASTA file are regular files.
func Validate(groupFile string, fastaFiles []string) error {
	if !isFile(groupFile) {
		return ErrGroupFile
	}
	for _, f := range fastaFiles {
		if !isFile(f) {
			return ErrFastaFile
		}
	}
	return nil
}

func isFile(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.Mode().IsRegular()
}

// ReadLengths builds the length lookup from fastaFiles in order. Duplicate
// identifiers are reported to diag and keep their first length.
func ReadLengths(fastaFiles []string, useIndex bool, diag io.Writer, verbose int) (seqlen.Lengths, error) {
	lengths := make(seqlen.Lengths)
	e := seqlen.NewExtractor()
	var dups []string
	for _, f := range fastaFiles {
		if useIndex && fai.HasIndex(f) {
			idx, err := fai.ReadIndex(fai.IndexFilename(f))
			if err != nil {
				return nil, err
			}
			dups = idx.AddLengths(lengths)
			if verbose > 0 {
				log.Printf("read %d sequence lengths from %s\n", len(idx.Names()), fai.IndexFilename(f))
			}
		} else {
			dups = e.ReadFile(f, lengths)
			if verbose > 0 {
				log.Printf("parsed %s, %d sequences so far\n", f, len(lengths))
			}
		}
		seqlen.ReportDuplicates(diag, dups)
	}
	return lengths, nil
}

// Run validates the inputs, extracts lengths, joins them with the group table
// and writes the report. It returns the report path. Nothing is written when
// validation fails.
func Run(groupFile string, fastaFiles []string, opts Options, stdout io.Writer) (string, error) {
	if err := Validate(groupFile, fastaFiles); err != nil {
		return "", err
	}

	output := opts.Output
	if output == "" {
		output = OutputFilename(groupFile)
	}

	start := time.Now()
	lengths, err := ReadLengths(fastaFiles, opts.UseIndex, stdout, opts.Verbose)
	if err != nil {
		return "", err
	}
	if opts.Verbose > 0 {
		log.Printf("collected %d sequence lengths in %s\n", len(lengths), time.Since(start))
		log.Println(summary.Describe(lengths))
		if opts.Verbose > 1 {
			log.Printf("\n%s\n", summary.Histogram(lengths, 40))
		}
	}

	stats, seen, err := writeReport(groupFile, output, lengths)
	if err != nil {
		if output != "stdout" {
			exception.PanicOnErr(os.Remove(output))
		}
		return "", fmt.Errorf("joining %s: %w", groupFile, err)
	}
	if opts.Verbose > 0 {
		log.Printf("group rows: %d\treport rows: %d (%d primary, %d secondary)\tunmatched labels: %d\n",
			stats.Rows, stats.Emitted(), stats.Primaries, stats.Secondaries, stats.Unmatched)
		if opts.Verbose > 1 {
			for _, id := range unreferenced(lengths, seen) {
				log.Printf("not referenced by any group: %s\n", id)
			}
		}
	}

	if opts.PlotFile != "" {
		if err = summary.SavePlot(lengths, opts.PlotFile); err != nil {
			return output, fmt.Errorf("plotting %s: %w", opts.PlotFile, err)
		}
	}
	return output, nil
}

// writeReport writes the joined report and returns the IDs that produced a row.
func writeReport(groupFile, output string, lengths seqlen.Lengths) (group.Stats, map[string]bool, error) {
	in := fileio.EasyOpen(groupFile)
	out := fileio.EasyCreate(output)
	defer cleanup(out)

	w := group.NewWriter(out)
	err := w.WriteHeader()
	exception.PanicOnErr(err)
	seen := make(map[string]bool)
	stats, err := group.Join(in, lengths, func(r group.Row) {
		if r.Secondary == "" {
			seen[group.ID(r.Primary)] = true
		} else {
			seen[group.ID(r.Secondary)] = true
		}
		exception.PanicOnErr(w.Write(r))
	})
	exception.PanicOnErr(w.Flush())

	// a failed read leaves the decompressor in an error state that Close repeats
	closeErr := in.Close()
	if err == nil {
		exception.PanicOnErr(closeErr)
	}
	return stats, seen, err
}

// unreferenced lists, in lexical order, the IDs in lengths that no report row used.
func unreferenced(lengths seqlen.Lengths, seen map[string]bool) []string {
	var ans []string
	for _, id := range summary.SortedIDs(lengths) {
		if !seen[id] {
			ans = append(ans, id)
		}
	}
	return ans
}

func cleanup(c io.Closer) {
	err := c.Close()
	exception.PanicOnErr(err)
}
