package grouplen

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"github.com/cgermain/grouplen/seqlen"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const expected string = "Primary,Secondary,Sequence Length\r\n" +
	"ID1 desc1,,7\r\n" +
	"ID1 desc1,ID2 desc2,3\r\n"

// copyTestdata copies fixtures into a fresh directory so reports are written there.
func copyTestdata(t *testing.T, names ...string) string {
	dir := t.TempDir()
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			t.Fatal(err)
		}
		if err = os.WriteFile(filepath.Join(dir, name), b, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestOutputFilename(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		in   string
		want string
	}{
		{"groups.tsv", "groups_lenghts.csv"},
		{"groups", "groups_lenghts.csv"},
		{"archive.tar.gz", "archive.tar_lenghts.csv"},
		{".hidden", ".hidden_lenghts.csv"},
		{"..x.tsv", "..x_lenghts.csv"},
	}
	for _, test := range tests {
		got := OutputFilename(filepath.Join(dir, test.in))
		if got != filepath.Join(dir, test.want) {
			t.Errorf("OutputFilename(%s) = %s, want %s", test.in, got, test.want)
		}
	}

	if !filepath.IsAbs(OutputFilename("groups.tsv")) {
		t.Error("relative group file should give an absolute report path")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("testdata/groups.tsv", []string{"testdata/seqs.fa"}); err != nil {
		t.Error(err)
	}
	if err := Validate("testdata/missing.tsv", []string{"testdata/seqs.fa"}); !errors.Is(err, ErrGroupFile) {
		t.Error("expected ErrGroupFile, got", err)
	}
	if err := Validate("testdata", []string{"testdata/seqs.fa"}); !errors.Is(err, ErrGroupFile) {
		t.Error("a directory is not a group file, got", err)
	}
	if err := Validate("testdata/groups.tsv", []string{"testdata/seqs.fa", "testdata/missing.fa"}); !errors.Is(err, ErrFastaFile) {
		t.Error("expected ErrFastaFile, got", err)
	}
}

func TestRun(t *testing.T) {
	dir := copyTestdata(t, "groups.tsv", "seqs.fa")
	stdout := new(bytes.Buffer)
	output, err := Run(filepath.Join(dir, "groups.tsv"), []string{filepath.Join(dir, "seqs.fa")}, Options{}, stdout)
	if err != nil {
		t.Fatal(err)
	}
	if output != filepath.Join(dir, "groups_lenghts.csv") {
		t.Error("unexpected output path:", output)
	}
	b, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != expected {
		t.Errorf("got %q, want %q", string(b), expected)
	}
	if stdout.Len() != 0 {
		t.Error("unexpected diagnostics:", stdout.String())
	}

	// a second run over the same inputs gives the same bytes
	if _, err = Run(filepath.Join(dir, "groups.tsv"), []string{filepath.Join(dir, "seqs.fa")}, Options{}, stdout); err != nil {
		t.Fatal(err)
	}
	again, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, again) {
		t.Error("repeated run changed the report")
	}
}

func TestRunDuplicates(t *testing.T) {
	dir := copyTestdata(t, "groups.tsv", "seqs.fa")
	fa := filepath.Join(dir, "seqs.fa")
	stdout := new(bytes.Buffer)
	output, err := Run(filepath.Join(dir, "groups.tsv"), []string{fa, fa}, Options{}, stdout)
	if err != nil {
		t.Fatal(err)
	}
	want := "Duplicate sequence found when reading FASTA files: ID1\n" +
		"Duplicate sequence found when reading FASTA files: ID2\n"
	if stdout.String() != want {
		t.Errorf("got diagnostics %q, want %q", stdout.String(), want)
	}
	b, _ := os.ReadFile(output)
	if string(b) != expected {
		t.Errorf("duplicates changed the report: %q", string(b))
	}
}

func TestRunMissingGroupFile(t *testing.T) {
	dir := copyTestdata(t, "seqs.fa")
	groupFile := filepath.Join(dir, "groups.tsv")
	_, err := Run(groupFile, []string{filepath.Join(dir, "seqs.fa")}, Options{}, io.Discard)
	if !errors.Is(err, ErrGroupFile) {
		t.Fatal("expected ErrGroupFile, got", err)
	}
	if _, err = os.Stat(OutputFilename(groupFile)); !os.IsNotExist(err) {
		t.Error("no report should be written when validation fails")
	}
}

func TestRunEmptyFasta(t *testing.T) {
	dir := copyTestdata(t, "groups.tsv", "empty.fa")
	output, err := Run(filepath.Join(dir, "groups.tsv"), []string{filepath.Join(dir, "empty.fa")}, Options{}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(output)
	if string(b) != "Primary,Secondary,Sequence Length\r\n" {
		t.Errorf("expected only the header, got %q", string(b))
	}
}

func TestRunWithIndex(t *testing.T) {
	dir := copyTestdata(t, "groups.tsv", "seqs.fa", "seqs.fa.fai")
	// the index is authoritative when -fai is used, so blank the FASTA body
	err := os.WriteFile(filepath.Join(dir, "seqs.fa"), []byte(">ID1\n>ID2\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	output, err := Run(filepath.Join(dir, "groups.tsv"), []string{filepath.Join(dir, "seqs.fa")}, Options{UseIndex: true}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(output)
	if string(b) != expected {
		t.Errorf("got %q, want %q", string(b), expected)
	}
}

func TestRunGzipOutputAndPlot(t *testing.T) {
	dir := copyTestdata(t, "groups.tsv", "seqs.fa")
	opts := Options{
		Output:   filepath.Join(dir, "report.csv.gz"),
		PlotFile: filepath.Join(dir, "lengths.svg"),
	}
	output, err := Run(filepath.Join(dir, "groups.tsv"), []string{filepath.Join(dir, "seqs.fa")}, opts, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if output != opts.Output {
		t.Error("output option ignored:", output)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != expected {
		t.Errorf("got %q, want %q", string(b), expected)
	}
	if _, err = os.Stat(opts.PlotFile); err != nil {
		t.Error("plot not written:", err)
	}
}

func TestRunTruncatedGroupFile(t *testing.T) {
	dir := copyTestdata(t, "seqs.fa")
	table := new(bytes.Buffer)
	table.WriteString("Primary\tDescription\tSecondaries\n")
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20000; i++ {
		fmt.Fprintf(table, "ID%d desc%d\t\tID%d x%d\n", rng.Intn(3), rng.Int63(), rng.Intn(3), rng.Int63())
	}
	compressed := new(bytes.Buffer)
	gz := gzip.NewWriter(compressed)
	if _, err := gz.Write(table.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	groupFile := filepath.Join(dir, "groups.tsv.gz")
	err := os.WriteFile(groupFile, compressed.Bytes()[:compressed.Len()/2], 0644)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Run(groupFile, []string{filepath.Join(dir, "seqs.fa")}, Options{}, io.Discard)
	if err == nil {
		t.Fatal("expected an error for a truncated group file")
	}
	if _, err = os.Stat(OutputFilename(groupFile)); !os.IsNotExist(err) {
		t.Error("partial report left behind:", err)
	}
}

func TestUnreferenced(t *testing.T) {
	lengths := seqlen.Lengths{"ID3": 1, "ID1": 7, "ID2": 3, "ID0": 4}
	got := unreferenced(lengths, map[string]bool{"ID1": true, "ID2": true})
	if strings.Join(got, ",") != "ID0,ID3" {
		t.Error("unexpected unreferenced ids:", got)
	}
}
