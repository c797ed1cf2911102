// Package summary describes the distribution of extracted sequence lengths.
package summary

import (
	"errors"
	"fmt"
	"github.com/cgermain/grouplen/seqlen"
	"github.com/guptarohit/asciigraph"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoLengths is returned when there is nothing to plot.
var ErrNoLengths = errors.New("no sequence lengths to plot")

type Stats struct {
	Count  int
	Min    int
	Max    int
	Mean   float64
	Median float64
	StdDev float64
}

func (s Stats) String() string {
	return fmt.Sprintf("sequences: %d\tmin: %d\tmax: %d\tmean: %.2f\tmedian: %.0f\tstdev: %.2f",
		s.Count, s.Min, s.Max, s.Mean, s.Median, s.StdDev)
}

// Describe computes summary statistics for all lengths. The median is the
// empirical quantile, so it is always one of the observed lengths.
func Describe(lengths seqlen.Lengths) Stats {
	var ans Stats
	vals := sortedValues(lengths)
	ans.Count = len(vals)
	if ans.Count == 0 {
		return ans
	}
	ans.Min = int(vals[0])
	ans.Max = int(vals[len(vals)-1])
	ans.Mean = stat.Mean(vals, nil)
	ans.Median = stat.Quantile(0.5, stat.Empirical, vals, nil)
	if ans.Count > 1 {
		ans.StdDev = stat.StdDev(vals, nil)
	}
	return ans
}

// SortedIDs returns the identifiers in lengths in lexical order.
func SortedIDs(lengths seqlen.Lengths) []string {
	ids := maps.Keys(lengths)
	slices.Sort(ids)
	return ids
}

// Histogram draws the length distribution split into bins as a terminal plot.
func Histogram(lengths seqlen.Lengths, bins int) string {
	counts := binCounts(sortedValues(lengths), bins)
	if len(counts) == 0 {
		return ""
	}
	s := Describe(lengths)
	return asciigraph.Plot(counts, asciigraph.Height(10), asciigraph.Precision(0),
		asciigraph.Caption(fmt.Sprintf("sequence lengths %d-%d in %d bins", s.Min, s.Max, len(counts))))
}

// SavePlot writes a histogram of lengths to filename. The file extension selects the format.
func SavePlot(lengths seqlen.Lengths, filename string) error {
	if len(lengths) == 0 {
		return ErrNoLengths
	}
	vals := plotter.Values(sortedValues(lengths))
	h, err := plotter.NewHist(vals, 20)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Sequence lengths"
	p.X.Label.Text = "Length"
	p.Y.Label.Text = "Sequences"
	p.Add(h)
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename)
}

func sortedValues(lengths seqlen.Lengths) []float64 {
	vals := make([]float64, 0, len(lengths))
	for _, l := range lengths {
		vals = append(vals, float64(l))
	}
	slices.Sort(vals)
	return vals
}

// binCounts counts sorted values into equal width bins spanning their range.
// All values land in a single bin when they are equal.
func binCounts(sorted []float64, bins int) []float64 {
	if len(sorted) == 0 || bins < 1 {
		return nil
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []float64{float64(len(sorted))}
	}
	ans := make([]float64, bins)
	width := (hi - lo) / float64(bins)
	var b int
	for _, v := range sorted {
		b = int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		ans[b]++
	}
	return ans
}
