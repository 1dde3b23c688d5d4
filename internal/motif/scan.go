package motif

import "strings"

// placeholder replaces each matched span in the working copy. 'X' is outside
// the 20-letter alphabet, so a masked span can never be rematched; the
// wildcard patterns in the catalog all require flanking residues that a
// two-character mask cannot supply.
const placeholder = "XX"

// ScanResult carries per-group and per-pattern motif counts for one
// sequence, along with the character length of every masked span.
type ScanResult struct {
	// Order is the group order the scan ran in.
	Order []Group
	// Counts sums the per-pattern match counts of each group.
	Counts map[Group]int
	// PatternCounts holds one count per catalog pattern, in catalog order.
	PatternCounts map[Group][]int
	// SpanLengths sums the character length of all masked spans per group.
	SpanLengths map[Group]int
	// SequenceLength is the length of the original, unmasked sequence.
	SequenceLength int
}

// TotalSpanLength sums masked span lengths across all groups.
func (r *ScanResult) TotalSpanLength() int {
	total := 0
	for _, n := range r.SpanLengths {
		total += n
	}
	return total
}

// Scan counts motif matches in seq, processing groups in the given order.
// Each pattern's matches are masked out of the working copy before the next
// pattern runs, so overlap is attributed to whichever pattern acted first.
// The original sequence is never modified.
func Scan(seq string, order []Group) (*ScanResult, error) {
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}

	res := &ScanResult{
		Order:          append([]Group(nil), order...),
		Counts:         make(map[Group]int, len(order)),
		PatternCounts:  make(map[Group][]int, len(order)),
		SpanLengths:    make(map[Group]int, len(order)),
		SequenceLength: len(seq),
	}

	work := seq
	for _, g := range order {
		res.PatternCounts[g] = make([]int, len(catalog[g]))
		for i, re := range catalog[g] {
			spans := re.FindAllStringIndex(work, -1)
			if len(spans) == 0 {
				continue
			}
			count := 0
			length := 0
			var masked strings.Builder
			prev := 0
			for _, sp := range spans {
				if sp[1] == sp[0] {
					// zero-length match; nothing to count or mask
					continue
				}
				count++
				length += sp[1] - sp[0]
				masked.WriteString(work[prev:sp[0]])
				masked.WriteString(placeholder)
				prev = sp[1]
			}
			if count == 0 {
				continue
			}
			masked.WriteString(work[prev:])
			work = masked.String()

			res.PatternCounts[g][i] = count
			res.Counts[g] += count
			res.SpanLengths[g] += length
		}
	}
	return res, nil
}

// Coverage is the fraction of the sequence accounted for by masked motif
// spans. seqLen must be the original sequence length.
func Coverage(res *ScanResult, seqLen int) (float64, error) {
	if seqLen <= 0 {
		return 0, ErrEmptySequence
	}
	return float64(res.TotalSpanLength()) / float64(seqLen), nil
}
