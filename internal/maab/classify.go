package maab

// Package maab derives the MAAB class of a sequence from its motif counts,
// residue composition and motif coverage. Classification is a fixed ordered
// chain of label rewrites; the label standing after the final coverage
// override is terminal.

import (
	"github.com/TS404/ragp/internal/motif"
)

// Label is a MAAB class code. Paired codes ("1/4", "2/9", "3/14") remain
// until a GPI-anchor flag resolves them to a single class.
type Label string

const (
	Unclassified Label = "0"
	Class1or4    Label = "1/4"
	Class2or9    Label = "2/9"
	Class3or14   Label = "3/14"
	Shared       Label = "Shared"
	LowCoverage  Label = "24"
)

// Features are the scalars the decision chain consumes.
type Features struct {
	ExtSP int // direct SP(3,5) matches
	Tyr   int // combined tyr-pattern matches
	Prp   int
	Agp   int

	PastPercent float64
	PvykPercent float64
	PskyPercent float64
	PPercent    float64

	Coverage float64
}

// NewFeatures flattens a scan result, composition stats and coverage into
// the classifier's input.
func NewFeatures(scan *motif.ScanResult, comp *motif.CompositionStats, coverage float64) Features {
	return Features{
		ExtSP:       scan.Counts[motif.Ext],
		Tyr:         scan.Counts[motif.Tyr],
		Prp:         scan.Counts[motif.Prp],
		Agp:         scan.Counts[motif.Agp],
		PastPercent: comp.PastPercent,
		PvykPercent: comp.PvykPercent,
		PskyPercent: comp.PskyPercent,
		PPercent:    comp.PPercent,
		Coverage:    coverage,
	}
}

// ext is the combined extensin feature: direct SP matches plus tyr matches.
func (f Features) ext() int { return f.ExtSP + f.Tyr }

// ratioAbove reports ExtSP/Tyr > x. The ratio is undefined when Tyr is
// zero; undefined comparisons are false, so zero-tyr sequences never take a
// ratio branch.
func (f Features) ratioAbove(x float64) bool {
	if f.Tyr == 0 {
		return false
	}
	return float64(f.ExtSP)/float64(f.Tyr) > x
}

// ratioBelow reports ExtSP/Tyr < x, false when the ratio is undefined.
func (f Features) ratioBelow(x float64) bool {
	if f.Tyr == 0 {
		return false
	}
	return float64(f.ExtSP)/float64(f.Tyr) < x
}

// categorised reports whether the sequence is proline-rich enough to enter
// the tree at all: one residue class at 45% or more, plus at least 10%
// proline.
func (f Features) categorised() bool {
	return (f.PastPercent >= 45 || f.PvykPercent >= 45 || f.PskyPercent >= 45) &&
		f.PPercent >= 10
}

// Classify runs the ordered rewrite chain and returns the terminal label.
// It is a pure function: identical features always yield the same label.
func Classify(f Features) Label {
	cat := f.categorised()

	label := Unclassified
	if cat {
		switch {
		case f.PastPercent >= 45 && f.PastPercent-f.PvykPercent >= 2 && f.PastPercent-f.PskyPercent >= 2:
			label = Class1or4
		case f.PskyPercent >= 45 && f.PskyPercent-f.PastPercent >= 2 && f.PskyPercent-f.PvykPercent >= 2:
			label = Class2or9
		case f.PvykPercent >= 45 && f.PvykPercent-f.PastPercent >= 2 && f.PvykPercent-f.PskyPercent >= 2:
			label = Class3or14
		default:
			label = Shared
		}
	}

	ext := float64(f.ext())
	prp := float64(f.Prp)
	agpHalf := float64(f.Agp) / 2

	// Refinement guards run in listed order against the family label; a
	// later guard overwrites an earlier one when both hold.
	switch label {
	case Class1or4:
		if agpHalf <= ext && prp <= ext {
			label = "5"
			if f.ratioAbove(4) {
				label = "6"
			}
			if label == Label("5") && f.ratioBelow(0.25) {
				label = "7"
			}
		} else if agpHalf < prp && ext < prp {
			label = "8"
		}
	case Class2or9:
		if agpHalf > ext && agpHalf > prp {
			label = "10"
		}
		if prp > ext && prp > agpHalf {
			label = "13"
		}
		if f.ratioAbove(4) {
			label = "11"
		}
		if f.ratioBelow(0.25) {
			label = "12"
		}
	case Class3or14:
		if agpHalf > prp && agpHalf > ext {
			label = "15"
		}
		if ext >= prp && ext >= agpHalf {
			label = "16"
			if f.ratioAbove(4) {
				label = "17"
			}
			if label == Label("16") && f.ratioBelow(0.25) {
				label = "18"
			}
		}
	case Shared:
		if agpHalf > ext && agpHalf > prp {
			label = "19"
		}
		if prp > ext && prp > agpHalf {
			label = "23"
		}
		if ext >= prp && ext >= agpHalf {
			label = "20"
			if f.ratioAbove(4) {
				label = "21"
			}
			if label == Label("20") && f.ratioBelow(0.25) {
				label = "22"
			}
		}
	}

	// The coverage override runs last and unconditionally.
	if cat && f.Coverage < 0.15 {
		label = LowCoverage
	}
	return label
}

// ClassifyScan maps a scan result, composition stats and coverage to a MAAB
// label, optionally resolving paired classes with a GPI-anchor flag.
func ClassifyScan(scan *motif.ScanResult, comp *motif.CompositionStats, coverage float64, gpi *bool) Label {
	label := Classify(NewFeatures(scan, comp, coverage))
	if gpi != nil {
		label = Resolve(label, *gpi)
	}
	return label
}

// Resolve rewrites a paired label using the GPI-anchor flag. Labels already
// refined past the paired stage come back unchanged.
func Resolve(label Label, gpi bool) Label {
	switch label {
	case Class1or4:
		if gpi {
			return "1"
		}
		return "4"
	case Class2or9:
		if gpi {
			return "9"
		}
		return "2"
	case Class3or14:
		if gpi {
			return "14"
		}
		return "3"
	}
	return label
}
