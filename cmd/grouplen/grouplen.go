package main

import (
	"errors"
	"flag"
	"fmt"
	"github.com/cgermain/grouplen/grouplen"
	"os"
)

const version string = "1.0.0"

func usage() {
	fmt.Print(
		"grouplen - Combines group data from GPM with sequence length from FASTA files.\n" +
			"Version: " + version + "\n\n" +
			"Usage:\n" +
			"  grouplen [options] groups.tsv seqs.fa [more.fa ...]\n\n" +
			"  groups.tsv\ttab separated group table exported from GPM. The first row is a header.\n" +
			"  seqs.fa\tone or more FASTA files to extract sequence lengths from. May be gzipped.\n\n" +
			"The report is written next to groups.tsv as groups_lenghts.csv unless -o is given.\n\n" +
			"Options:\n")
	flag.PrintDefaults()
}

func main() {
	output := flag.String("o", "", "Output CSV file. Defaults to <group file>_lenghts.csv next to the group file. Gzipped if it ends in .gz.")
	useIndex := flag.Bool("fai", false, "Read lengths from a samtools index (<fasta>.fai) when one exists instead of parsing the FASTA.")
	plotFile := flag.String("plot", "", "Save a histogram of sequence lengths to this file (.pdf, .png, or .svg).")
	verbose := flag.Int("v", 0, "Verbose output by setting to >0. Set to >1 to also draw a length histogram.")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		errExit("\nERROR: must have a group file and at least one FASTA file")
	}

	opts := grouplen.Options{
		Output:   *output,
		UseIndex: *useIndex,
		PlotFile: *plotFile,
		Verbose:  *verbose,
	}

	outfile, err := grouplen.Run(flag.Arg(0), flag.Args()[1:], opts, os.Stdout)
	switch {
	case errors.Is(err, grouplen.ErrGroupFile) || errors.Is(err, grouplen.ErrFastaFile):
		fmt.Println(err)
		return
	case err != nil:
		errExit(fmt.Sprintf("ERROR: %s", err))
	}

	fmt.Println("Finished!")
	fmt.Println("Saved as " + outfile)
}

func errExit(err string) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
