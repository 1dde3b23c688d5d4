package motif

import (
	"errors"
	"testing"
)

// permutations returns every ordering of the given groups.
func permutations(groups []Group) [][]Group {
	if len(groups) <= 1 {
		return [][]Group{append([]Group(nil), groups...)}
	}
	var out [][]Group
	for i := range groups {
		rest := make([]Group, 0, len(groups)-1)
		rest = append(rest, groups[:i]...)
		rest = append(rest, groups[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Group{groups[i]}, p...))
		}
	}
	return out
}

func TestValidateOrderPermutations(t *testing.T) {
	perms := permutations([]Group{Ext, Tyr, Prp, Agp})
	if len(perms) != 24 {
		t.Fatalf("expected 24 permutations, got %d", len(perms))
	}
	for _, p := range perms {
		if err := ValidateOrder(p); err != nil {
			t.Fatalf("valid order %v rejected: %v", p, err)
		}
	}
}

func TestValidateOrderRejectsMalformed(t *testing.T) {
	cases := [][]Group{
		{Ext, Tyr, Prp},
		{Ext, Tyr, Prp, Agp, Ext},
		{Ext, Tyr, Prp, Prp},
		{Ext, Tyr, Prp, Group("foo")},
		{},
		nil,
	}
	for _, c := range cases {
		if err := ValidateOrder(c); !errors.Is(err, ErrInvalidOrder) {
			t.Fatalf("order %v: expected ErrInvalidOrder, got %v", c, err)
		}
	}
}

func TestParseOrder(t *testing.T) {
	order, err := ParseOrder("agp, prp, tyr, ext")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Group{Agp, Prp, Tyr, Ext}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
	if _, err := ParseOrder("ext,tyr"); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
	if def, err := ParseOrder(""); err != nil || len(def) != 4 {
		t.Fatalf("empty order should yield the default, got %v, %v", def, err)
	}
}

func TestScanRejectsBadOrder(t *testing.T) {
	if _, err := Scan("SPPP", []Group{Ext, Ext, Prp, Agp}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
}

func TestScanExtGreedy(t *testing.T) {
	// SP{3,5} takes the longest run: S plus five of the six prolines.
	res, err := Scan("SPPPPPP", DefaultOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Counts[Ext] != 1 {
		t.Fatalf("expected 1 ext match, got %d", res.Counts[Ext])
	}
	if res.SpanLengths[Ext] != 6 {
		t.Fatalf("expected ext span length 6, got %d", res.SpanLengths[Ext])
	}
}

func TestScanMasksWithinGroup(t *testing.T) {
	// Both agp patterns match "AP"; the first must consume it so the
	// second cannot double-count the same residues.
	res, err := Scan("AP", DefaultOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Counts[Agp] != 1 {
		t.Fatalf("expected 1 agp match, got %d", res.Counts[Agp])
	}
	if res.SpanLengths[Agp] != 2 {
		t.Fatalf("expected agp span length 2, got %d", res.SpanLengths[Agp])
	}
	if got := res.PatternCounts[Agp]; got[0] != 1 || got[1] != 0 {
		t.Fatalf("unexpected agp pattern counts: %v", got)
	}
}

func TestScanOrderSensitivity(t *testing.T) {
	// In PPVKY the prp motif PPV[QK] and the tyr motif V.Y overlap on VK.
	// Whichever group scans first claims the residues.
	seq := "PPVKY"

	tyrFirst, err := Scan(seq, []Group{Ext, Tyr, Prp, Agp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tyrFirst.Counts[Tyr] != 1 || tyrFirst.Counts[Prp] != 0 {
		t.Fatalf("tyr-first: expected tyr=1 prp=0, got tyr=%d prp=%d",
			tyrFirst.Counts[Tyr], tyrFirst.Counts[Prp])
	}

	prpFirst, err := Scan(seq, []Group{Ext, Prp, Tyr, Agp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prpFirst.Counts[Prp] != 1 || prpFirst.Counts[Tyr] != 0 {
		t.Fatalf("prp-first: expected prp=1 tyr=0, got prp=%d tyr=%d",
			prpFirst.Counts[Prp], prpFirst.Counts[Tyr])
	}

	// No overlap: results must agree regardless of order.
	for _, order := range [][]Group{
		{Ext, Tyr, Prp, Agp},
		{Agp, Prp, Tyr, Ext},
	} {
		res, err := Scan("SPPPGW", order)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Counts[Ext] != 1 || res.Counts[Tyr] != 0 || res.Counts[Prp] != 0 || res.Counts[Agp] != 0 {
			t.Fatalf("order %v: unexpected counts %v", order, res.Counts)
		}
	}
}

func TestScanMaskedSpanNotRematched(t *testing.T) {
	// KHY is claimed by the tyr group; nothing else may rematch it.
	res, err := Scan("VYKHY", DefaultOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Counts[Tyr] != 1 {
		t.Fatalf("expected tyr=1, got %d", res.Counts[Tyr])
	}
	if res.SpanLengths[Tyr] != 3 {
		t.Fatalf("expected tyr span length 3, got %d", res.SpanLengths[Tyr])
	}
}

func TestCoverage(t *testing.T) {
	res, err := Scan("SPPP", DefaultOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cov, err := Coverage(res, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cov != 1.0 {
		t.Fatalf("expected coverage 1.0, got %g", cov)
	}
	if _, err := Coverage(res, 0); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected ErrEmptySequence, got %v", err)
	}
}

func TestCoverageNeverExceedsOne(t *testing.T) {
	seqs := []string{
		"SPPPPSPPPSPPPP",
		"APAPAPAPAPAP",
		"PPVKPPVKKKPCPPYY",
		"VYKHYVYKHYVYKHY",
		"SPPPAPVPYTPKKPCPPVYK",
	}
	for _, seq := range seqs {
		for _, order := range permutations([]Group{Ext, Tyr, Prp, Agp}) {
			res, err := Scan(seq, order)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if total := res.TotalSpanLength(); total > len(seq) {
				t.Fatalf("seq %q order %v: span total %d exceeds length %d",
					seq, order, total, len(seq))
			}
		}
	}
}
