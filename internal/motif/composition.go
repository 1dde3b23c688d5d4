package motif

import "strings"

// CompositionStats holds residue-class percentages for one sequence.
// The four classes overlap each other and are computed over the original,
// unmasked sequence; motif masking never affects them.
type CompositionStats struct {
	PastPercent  float64 // P, A, S, T
	PvykPercent  float64 // P, V, Y, K
	PskyPercent  float64 // P, S, K, Y
	PPercent     float64 // P alone
	ProlineCount int
}

// Composition computes the four residue-class percentages and the raw
// proline count for seq. Returns ErrEmptySequence for a zero-length input.
func Composition(seq string) (*CompositionStats, error) {
	if len(seq) == 0 {
		return nil, ErrEmptySequence
	}

	var past, pvyk, psky, pro int
	for i := 0; i < len(seq); i++ {
		c := seq[i]
		if strings.IndexByte(pastResidues, c) >= 0 {
			past++
		}
		if strings.IndexByte(pvykResidues, c) >= 0 {
			pvyk++
		}
		if strings.IndexByte(pskyResidues, c) >= 0 {
			psky++
		}
		if c == prolineOnly[0] {
			pro++
		}
	}

	n := float64(len(seq))
	return &CompositionStats{
		PastPercent:  float64(past) / n * 100,
		PvykPercent:  float64(pvyk) / n * 100,
		PskyPercent:  float64(psky) / n * 100,
		PPercent:     float64(pro) / n * 100,
		ProlineCount: pro,
	}, nil
}
