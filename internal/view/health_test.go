package view

import (
	"testing"
	"time"

	"github.com/arty021/bad-modems/internal/report"
)

func TestPercentageClass(t *testing.T) {
	cases := []struct {
		p    float64
		want string
	}{
		{0, "low"},
		{19.9, "low"},
		{20, "medium"},
		{49.99, "medium"},
		{50, "high"},
		{100, "high"},
	}
	for _, tc := range cases {
		if got := PercentageClass(tc.p); got != tc.want {
			t.Fatalf("PercentageClass(%v)=%q want %q", tc.p, got, tc.want)
		}
	}
}

func TestHealthScore(t *testing.T) {
	cases := []struct {
		healthy, total int
		score          float64
		status         HealthStatus
	}{
		{85, 100, 85.0, StatusGood},
		{95, 100, 95.0, StatusExcellent},
		{70, 100, 70.0, StatusWarning},
		{69, 100, 69.0, StatusCritical},
		{0, 0, 0, StatusCritical},
		{2, 3, 66.7, StatusCritical},
	}
	for _, tc := range cases {
		score, status := HealthScore(tc.healthy, tc.total)
		if score != tc.score || status != tc.status {
			t.Fatalf("HealthScore(%d, %d)=%v %v want %v %v", tc.healthy, tc.total, score, status, tc.score, tc.status)
		}
	}
}

func TestBuildHealthDerivesMissingCounts(t *testing.T) {
	res := &report.Result{Summary: report.Summary{TotalModems: 100, UspDspCount: 10, UspDspDssCount: 15}}
	h := buildHealth(res)
	if h.Healthy != 85 || h.DssOnly != 5 {
		t.Fatalf("healthy=%d dssOnly=%d", h.Healthy, h.DssOnly)
	}
	if h.Score != 85.0 || h.Status != StatusGood {
		t.Fatalf("score=%v status=%v", h.Score, h.Status)
	}
	if h.PowerPercent != 10 || h.PowerBar != 50 || h.TotalBar != 75 || h.DssBar != 25 {
		t.Fatalf("bars: %+v", h)
	}
	if h.Updated != "" {
		t.Fatalf("updated set without timestamp: %q", h.Updated)
	}
}

func TestBuildHealthCapsBars(t *testing.T) {
	res := &report.Result{Summary: report.Summary{TotalModems: 10, UspDspCount: 5, UspDspDssCount: 6}}
	h := buildHealth(res)
	if h.PowerBar != 100 || h.TotalBar != 100 {
		t.Fatalf("bars not capped: %+v", h)
	}
}

func TestFormatUpdated(t *testing.T) {
	ts := time.Date(2026, 3, 4, 9, 5, 7, 0, time.Local)
	if got := FormatUpdated(ts); got != "4.3.2026, 09:05:07" {
		t.Fatalf("FormatUpdated=%q", got)
	}
}

func TestBuildTables(t *testing.T) {
	tables := BuildTables(sampleResult())
	if len(tables) != 3 {
		t.Fatalf("tables=%d", len(tables))
	}
	amp, node, dss := tables[0], tables[1], tables[2]
	if amp.ID != TableAmp || node.ID != TableNode || dss.ID != TableDss {
		t.Fatalf("table order: %s %s %s", amp.ID, node.ID, dss.ID)
	}

	first := amp.Rows[0]
	if !first.New || first.Cells[1] != "AMP-1 Centar NOVO" || first.Cells[3] != "6  60%  od 10" || first.Class != "high" {
		t.Fatalf("amp row 1: %+v", first)
	}
	second := amp.Rows[1]
	if second.Cells[2] != "N/A" || second.Class != "medium" || second.New {
		t.Fatalf("amp row 2: %+v", second)
	}
	if node.Rows[0].Cells[2] != "Centar" {
		t.Fatalf("on row: %+v", node.Rows[0])
	}
	// DSS rows without a bad count fall back to the dss count.
	if got := dss.Rows[0].Cells[3]; got != "3  10%  od 30" || dss.Rows[0].Class != "low" {
		t.Fatalf("dss row: %+v", dss.Rows[0])
	}
}

func TestBuildTablesEmpty(t *testing.T) {
	tables := BuildTables(&report.Result{Success: true})
	for _, tb := range tables {
		if len(tb.Rows) != 0 {
			t.Fatalf("%s: rows=%d", tb.ID, len(tb.Rows))
		}
	}
}
