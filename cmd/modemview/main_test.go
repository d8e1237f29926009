package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arty021/bad-modems/internal/report"
	"github.com/arty021/bad-modems/internal/view"
)

func intPtr(n int) *int { return &n }

func sampleResult() *report.Result {
	return &report.Result{
		Success:   true,
		Timestamp: time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC),
		City:      report.Sombor,
		Summary: report.Summary{
			TotalModems: 100, UspDspCount: 10, UspDspDssCount: 15, HealthyCount: intPtr(85),
			UspDspPercentage: 10, UspDspDssPercentage: 15, HealthyPercentage: 85,
		},
		TopAmp: []report.AmpRow{
			{Rank: 1, AmpName: "AMP-1 Centar", AmpCode: "AMP-1", BadCount: 6, TotalCount: 10, Percentage: 60, UspCount: 4, DspCount: 2, IsNew: true},
			{Rank: 2, AmpName: "AMP-2 Zapad", AmpCode: "AMP-2", BadCount: 4, TotalCount: 40, Percentage: 10, UspCount: 3, DspCount: 1},
		},
		TopOn: []report.NodeRow{
			{Rank: 1, OnNode: "ON-1-1", OnName: "Centar", BadCount: 10, TotalCount: 50, Percentage: 20, UspCount: 7, DspCount: 3},
		},
		TopDss: []report.DssRow{
			{Rank: 1, OnNode: "ON-2-1", OnName: "Zapad", BadCount: 3, DssCount: 3, TotalCount: 30, Percentage: 10},
		},
		NewEntries: &report.NewEntries{NewAmpCount: 1},
	}
}

type fakeServer struct {
	*httptest.Server
	uploads    atomic.Int32
	uploadCity atomic.Value
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/get_latest/", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/get_latest/") {
		case "sombor":
			_ = json.NewEncoder(w).Encode(sampleResult())
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"success":false,"error":"No data available for this city"}`)
		}
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		fs.uploads.Add(1)
		city := r.FormValue("city")
		fs.uploadCity.Store(city)
		if city == "kikinda" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"success":false,"error":"Error processing file: missing column USP"}`)
			return
		}
		res := sampleResult()
		res.City = report.City(city)
		_ = json.NewEncoder(w).Encode(res)
	})
	mux.HandleFunc("/api/cities", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"default":"novi_sad","cities":[`+
			`{"id":"novi_sad","name":"Novi Sad","has_data":true,"last_upload":"2026-05-01T08:30:00Z"},`+
			`{"id":"vrsac","name":"Vršac","has_data":false}]}`)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLatestCommand(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()

	out, err := runCmd(t, "--server", srv.URL, "--charts-dir", dir, "latest", "Sombor")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	for _, want := range []string{"Sombor", "Network health", "85.0% good", "Top 10 AMP", "AMP-1 Centar NOVO", "ON-2-1", "Charts: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
	for _, kind := range []string{"amp", "on", "dss", "health"} {
		if _, err := os.Stat(filepath.Join(dir, kind+".png")); err != nil {
			t.Fatalf("chart %s: %v", kind, err)
		}
	}
}

func TestLatestCommandNoData(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()

	out, err := runCmd(t, "--server", srv.URL, "--charts-dir", dir, "latest", "vrbas")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !strings.Contains(out, "No data available for Vrbas") {
		t.Fatalf("output: %s", out)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("charts written without data: %v", entries)
	}
}

func TestLatestCommandUnknownCity(t *testing.T) {
	srv := newFakeServer(t)
	_, err := runCmd(t, "--server", srv.URL, "--charts-dir", t.TempDir(), "latest", "beograd")
	if !errors.Is(err, report.ErrUnknownCity) {
		t.Fatalf("want ErrUnknownCity got %v", err)
	}
}

func TestUploadCommand(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()
	file := filepath.Join(t.TempDir(), "modems.csv")
	if err := os.WriteFile(file, []byte("MAC,USP\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := runCmd(t, "--server", srv.URL, "--charts-dir", dir, "upload", file, "--city", "vrsac")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got := srv.uploadCity.Load(); got != "vrsac" {
		t.Fatalf("uploaded for %v", got)
	}
	for _, want := range []string{"Vršac", "File: modems.csv", "New since last upload: AMP 1, ON 0, DSS 0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestUploadCommandFailures(t *testing.T) {
	srv := newFakeServer(t)
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "modems.csv")
	txtFile := filepath.Join(dir, "modems.txt")
	for _, f := range []string{csvFile, txtFile} {
		if err := os.WriteFile(f, []byte("MAC\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	_, err := runCmd(t, "--server", srv.URL, "--charts-dir", dir, "upload", txtFile)
	if !errors.Is(err, view.ErrNotCSV) {
		t.Fatalf("want ErrNotCSV got %v", err)
	}
	if n := srv.uploads.Load(); n != 0 {
		t.Fatalf("non-csv file was uploaded %d times", n)
	}

	_, err = runCmd(t, "--server", srv.URL, "--charts-dir", dir, "upload", csvFile, "--city", "kikinda")
	if err == nil || err.Error() != "Error processing file: missing column USP" {
		t.Fatalf("want server rejection got %v", err)
	}

	_, err = runCmd(t, "--server", srv.URL, "--charts-dir", dir, "upload", csvFile, "--city", "paris")
	if !errors.Is(err, report.ErrUnknownCity) {
		t.Fatalf("want ErrUnknownCity got %v", err)
	}
}

func TestCitiesCommand(t *testing.T) {
	srv := newFakeServer(t)
	out, err := runCmd(t, "--server", srv.URL, "cities")
	if err != nil {
		t.Fatalf("cities: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines got %q", out)
	}
	if !strings.HasPrefix(lines[0], "novi_sad") || !strings.Contains(lines[0], "last upload") {
		t.Fatalf("line 0: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Vršac") || !strings.HasSuffix(lines[1], "no data") {
		t.Fatalf("line 1: %q", lines[1])
	}
}
