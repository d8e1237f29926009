package main

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arty021/bad-modems/internal/report"
)

func analyzedReport(t *testing.T) *report.Result {
	t.Helper()
	res, err := report.Analyze(strings.NewReader(testReport()))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	res.Timestamp = time.Now().UTC()
	return res
}

func TestSaveResultMarksNewEntries(t *testing.T) {
	a := newTestApp(t)

	first := analyzedReport(t)
	run, err := saveResult(a.db, report.Zrenjanin, "a.csv", first)
	if err != nil {
		t.Fatalf("saveResult: %v", err)
	}
	if first.NewEntries == nil || first.NewEntries.Total() != 3 || run.NewEntries != 3 {
		t.Fatalf("first upload new entries: %+v run=%d", first.NewEntries, run.NewEntries)
	}

	second := analyzedReport(t)
	if _, err := saveResult(a.db, report.Zrenjanin, "b.csv", second); err != nil {
		t.Fatalf("saveResult: %v", err)
	}
	if second.NewEntries.Total() != 0 {
		t.Fatalf("repeat upload new entries: %+v", second.NewEntries)
	}
}

func TestConcurrentSavesCompareAgainstCommittedLatest(t *testing.T) {
	a := newTestApp(t)
	const uploads = 6

	results := make([]*report.Result, uploads)
	for i := range results {
		results[i] = analyzedReport(t)
	}
	var wg sync.WaitGroup
	errs := make(chan error, uploads)
	for _, res := range results {
		wg.Add(1)
		go func(res *report.Result) {
			defer wg.Done()
			if _, err := saveResult(a.db, report.Vrbas, "modems.csv", res); err != nil {
				errs <- err
			}
		}(res)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("saveResult: %v", err)
	}

	marked := 0
	for _, res := range results {
		if res.NewEntries.Total() > 0 {
			marked++
		}
	}
	if marked != 1 {
		t.Fatalf("%d uploads reported new entries, want 1", marked)
	}
}
