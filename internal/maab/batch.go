package maab

import (
	"errors"
	"fmt"

	"github.com/TS404/ragp/internal/fasta"
	"github.com/TS404/ragp/internal/motif"
)

// ErrLengthMismatch reports a GPI flag set that does not cover exactly the
// input identifiers.
var ErrLengthMismatch = errors.New("maab: gpi flags do not match the input identifiers")

// Result is one classified sequence.
type Result struct {
	ID          string
	Scan        *motif.ScanResult
	Composition *motif.CompositionStats
	Coverage    float64
	Features    Features
	Label       Label
}

// ClassifySequence scans, profiles and classifies a single sequence. The
// sequence must already be normalized (uppercase, no trailing '*').
func ClassifySequence(id, seq string, order []motif.Group) (Result, error) {
	scan, err := motif.Scan(seq, order)
	if err != nil {
		return Result{}, err
	}
	comp, err := motif.Composition(seq)
	if err != nil {
		return Result{}, fmt.Errorf("%w (id %q)", err, id)
	}
	cov, err := motif.Coverage(scan, len(seq))
	if err != nil {
		return Result{}, fmt.Errorf("%w (id %q)", err, id)
	}
	f := NewFeatures(scan, comp, cov)
	return Result{
		ID:          id,
		Scan:        scan,
		Composition: comp,
		Coverage:    cov,
		Features:    f,
		Label:       Classify(f),
	}, nil
}

// ClassifyAll classifies every record, preserving input order, one result
// per record. When gpi is non-nil it must carry a flag for exactly the
// input identifiers; paired labels are then resolved. All validation runs
// before any sequence is processed, so a bad batch yields no partial
// results.
func ClassifyAll(records []fasta.Record, order []motif.Group, gpi map[string]bool) ([]Result, error) {
	if err := motif.ValidateOrder(order); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if len(rec.Sequence) == 0 {
			return nil, fmt.Errorf("%w (id %q)", motif.ErrEmptySequence, fasta.Accession(rec.Header))
		}
	}
	if gpi != nil {
		if len(gpi) != len(records) {
			return nil, fmt.Errorf("%w: %d flags for %d sequences", ErrLengthMismatch, len(gpi), len(records))
		}
		for _, rec := range records {
			if _, ok := gpi[fasta.Accession(rec.Header)]; !ok {
				return nil, fmt.Errorf("%w: no flag for %q", ErrLengthMismatch, fasta.Accession(rec.Header))
			}
		}
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		id := fasta.Accession(rec.Header)
		res, err := ClassifySequence(id, rec.Sequence, order)
		if err != nil {
			return nil, err
		}
		if gpi != nil {
			res.Label = Resolve(res.Label, gpi[id])
		}
		results = append(results, res)
	}
	return results, nil
}
