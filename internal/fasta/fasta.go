package fasta

// Package fasta contains minimal helpers to parse FASTA formatted data used
// by the project. It intentionally keeps parsing simple and conservative.

import (
	"bufio"
	"io"
	"strings"
)

// Record represents a single FASTA record (header and sequence).
type Record struct {
	Header   string
	Sequence string
}

// ParseFasta reads FASTA records from r and returns a slice of Record.
// Lines beginning with '>' denote headers; sequence lines are concatenated.
func ParseFasta(r io.Reader) []Record {
	scanner := bufio.NewScanner(r)
	var records []Record
	var current Record
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			if current.Header != "" {
				records = append(records, current)
			}
			current = Record{Header: line[1:], Sequence: ""}
		} else {
			current.Sequence += line
		}
	}
	if current.Header != "" {
		records = append(records, current)
	}
	return records
}

// Accession returns the first whitespace-delimited token of a header, the
// identifier the rest of the pipeline keys on.
func Accession(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Normalize prepares a raw protein sequence for scanning: uppercases it and
// drops whitespace, alignment gaps and a trailing stop marker. The scanner
// requires uppercase input and assumes the '*' is already gone.
func Normalize(seq string) string {
	var b strings.Builder
	b.Grow(len(seq))
	for _, r := range strings.ToUpper(seq) {
		switch r {
		case ' ', '\t', '\r', '\n', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSuffix(b.String(), "*")
}
