package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arty021/bad-modems/internal/report"
	"github.com/arty021/bad-modems/internal/view"
)

func TestTerminalTable(t *testing.T) {
	var out bytes.Buffer
	s := newTerminalSurface(&out)
	for _, tbl := range view.BuildTables(sampleResult()) {
		s.RenderTable(tbl)
	}
	got := out.String()
	for _, want := range []string{"Top 10 AMP", "Top 10 ON", "Top 20 DSS", "AMP-1 Centar NOVO", "6  60%  od 10", "3  10%  od 30"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "AMP-2 Zapad NOVO") {
		t.Fatalf("old row marked new:\n%s", got)
	}
}

func TestTerminalEmptyTable(t *testing.T) {
	var out bytes.Buffer
	newTerminalSurface(&out).RenderTable(view.Table{Title: "Top 20 DSS", Columns: []string{"#"}})
	if !strings.Contains(out.String(), "no entries") {
		t.Fatalf("output: %q", out.String())
	}
}

func TestTerminalPanels(t *testing.T) {
	cases := []struct {
		panel   view.Panel
		message string
		want    string
	}{
		{view.PanelLoading, "", "Loading..."},
		{view.PanelNoData, "", "No data available for Zrenjanin"},
		{view.PanelNoData, "Could not load the latest results: timeout", "timeout"},
		{view.PanelError, "Please select a CSV file", "Error: Please select a CSV file"},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		s := newTerminalSurface(&out)
		s.city = report.Zrenjanin
		s.ShowPanel(tc.panel, tc.message)
		if !strings.Contains(out.String(), tc.want) {
			t.Fatalf("%s: output %q lacks %q", tc.panel, out.String(), tc.want)
		}
	}

	var out bytes.Buffer
	newTerminalSurface(&out).ShowPanel(view.PanelIdle, "")
	if out.Len() != 0 {
		t.Fatalf("idle panel printed %q", out.String())
	}
}

func TestTerminalNewEntries(t *testing.T) {
	var out bytes.Buffer
	s := newTerminalSurface(&out)
	s.RenderNewEntries(nil)
	if out.Len() != 0 {
		t.Fatalf("hidden banner printed %q", out.String())
	}
	s.RenderNewEntries(&report.NewEntries{NewAmpCount: 2, NewOnCount: 1, NewDssCount: 3})
	if !strings.Contains(out.String(), "AMP 2, ON 1, DSS 3") {
		t.Fatalf("banner: %q", out.String())
	}
}
