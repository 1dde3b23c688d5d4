package motif

// Package motif holds the HRGP motif catalog and the sequential masking
// scanner that counts motif occurrences per group. The catalog is fixed;
// callers only choose the order in which the four groups are scanned.

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Group names one of the four motif groups.
type Group string

const (
	Ext Group = "ext"
	Tyr Group = "tyr"
	Prp Group = "prp"
	Agp Group = "agp"
)

var (
	// ErrInvalidOrder reports a group order that is not a permutation of
	// ext, tyr, prp, agp.
	ErrInvalidOrder = errors.New("motif: group order must be a permutation of ext, tyr, prp, agp")

	// ErrEmptySequence reports a zero-length sequence where statistics
	// would divide by the sequence length.
	ErrEmptySequence = errors.New("motif: empty sequence")
)

// catalog maps each group to its patterns. Pattern order within a group
// matters: patterns are matched and masked sequentially, so an earlier
// pattern consumes residues a later one can no longer see.
var catalog = map[Group][]*regexp.Regexp{
	Ext: {
		regexp.MustCompile(`SP{3,5}`),
	},
	Tyr: {
		regexp.MustCompile(`[FY].Y`),
		regexp.MustCompile(`KHY`),
		regexp.MustCompile(`VY[HKDE]`),
		regexp.MustCompile(`V.Y`),
		regexp.MustCompile(`YY`),
	},
	Prp: {
		regexp.MustCompile(`PPV.[KT]`),
		regexp.MustCompile(`PPV[QK]`),
		regexp.MustCompile(`KKPCPP`),
	},
	Agp: {
		regexp.MustCompile(`[AVTG]P{1,3}`),
		regexp.MustCompile(`[ASVTG]P{1,2}`),
	},
}

// Residue classes for composition statistics, always evaluated in this
// fixed order: past, pvyk, psky, p.
const (
	pastResidues = "PAST"
	pvykResidues = "PVYK"
	pskyResidues = "PSKY"
	prolineOnly  = "P"
)

// DefaultOrder is the scan order used by the published pipeline.
var DefaultOrder = []Group{Ext, Tyr, Prp, Agp}

// ValidateOrder checks that order contains each of the four groups exactly
// once. Returns ErrInvalidOrder (wrapped with detail) otherwise.
func ValidateOrder(order []Group) error {
	if len(order) != len(catalog) {
		return fmt.Errorf("%w: got %d groups", ErrInvalidOrder, len(order))
	}
	seen := make(map[Group]bool, len(order))
	for _, g := range order {
		if _, ok := catalog[g]; !ok {
			return fmt.Errorf("%w: unknown group %q", ErrInvalidOrder, g)
		}
		if seen[g] {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalidOrder, g)
		}
		seen[g] = true
	}
	return nil
}

// ParseOrder parses a comma-separated order such as "ext,tyr,prp,agp".
// An empty string yields DefaultOrder.
func ParseOrder(s string) ([]Group, error) {
	if strings.TrimSpace(s) == "" {
		return append([]Group(nil), DefaultOrder...), nil
	}
	parts := strings.Split(s, ",")
	order := make([]Group, 0, len(parts))
	for _, p := range parts {
		order = append(order, Group(strings.ToLower(strings.TrimSpace(p))))
	}
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// PatternCount returns how many patterns the given group carries, zero for
// an unknown group.
func PatternCount(g Group) int {
	return len(catalog[g])
}
