package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	payload := `[{"accession":"a1","maab_class":"1/4","length":20,"coverage":1.0}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	results, err := readDatabase(path)
	if err != nil {
		t.Fatalf("readDatabase failed: %v", err)
	}
	if len(results) != 1 || results[0].Accession != "a1" || results[0].MAABClass != "1/4" {
		t.Fatalf("unexpected results: %#v", results)
	}
}

func TestFilterResults(t *testing.T) {
	results := []Result{
		{Accession: "AT1G01010", MAABClass: "1/4"},
		{Accession: "AT2G02020", MAABClass: "20"},
		{Accession: "AT3G03030", MAABClass: "0"},
	}
	if got := filterResults(results, ""); len(got) != 3 {
		t.Fatalf("empty query should keep everything, got %d", len(got))
	}
	if got := filterResults(results, "at2"); len(got) != 1 || got[0].Accession != "AT2G02020" {
		t.Fatalf("unexpected filter result: %#v", got)
	}
	if got := filterResults(results, "1/4"); len(got) != 1 || got[0].MAABClass != "1/4" {
		t.Fatalf("class filter failed: %#v", got)
	}
}

func TestSortResults(t *testing.T) {
	results := []Result{
		{Accession: "b", Coverage: 0.2, MAABClass: "20"},
		{Accession: "a", Coverage: 0.9, MAABClass: "1/4"},
	}
	sortResults(results, "coverage")
	if results[0].Accession != "a" {
		t.Fatalf("coverage sort should be descending: %#v", results)
	}
	sortResults(results, "")
	if results[0].Accession != "a" || results[1].Accession != "b" {
		t.Fatalf("default sort should be by accession: %#v", results)
	}
}
