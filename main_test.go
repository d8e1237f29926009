package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arty021/bad-modems/internal/report"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const testReportHeader = "MAC,AMP_NAME,dpath,USP,DSP,SNR,c6,c7,c8,c9,c10,c11,c12,ON_NAME"

// testReport has three modems: one with a power issue, one with only a DSS
// issue and one healthy.
func testReport() string {
	return strings.Join([]string{
		testReportHeader,
		"m1,AMP-1 Centar,/hfc/ON-1-1/p1,55,5,40,,,,,,,,ON-1-1 Centar",
		"m2,AMP-1 Centar,ON-1-1,40,5,30,,,,,,,,Centar",
		"m3,AMP-2 Liman,ON-2-5,40,5,40,,,,,,,,Liman",
	}, "\n") + "\n"
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := openDB(databaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	log := zap.NewNop()
	return &app{
		db:        db,
		hub:       newLiveHub(log),
		log:       log,
		maxUpload: defaultMaxUploadSize,
	}
}

func uploadRequest(t *testing.T, fields map[string]string, fileName, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) report.Result {
	t.Helper()
	var res report.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return res
}

func mustUpload(t *testing.T, r http.Handler, city string) report.Result {
	t.Helper()
	w := serve(r, uploadRequest(t, map[string]string{"city": city}, "modems.csv", testReport()))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", w.Code, w.Body.String())
	}
	return decodeResult(t, w)
}

func TestUploadValidation(t *testing.T) {
	cases := []struct {
		name     string
		fields   map[string]string
		fileName string
		wantErr  string
	}{
		{"no file", map[string]string{"city": "novi_sad"}, "", "No file provided"},
		{"no city", nil, "modems.csv", "No city specified"},
		{"unknown city", map[string]string{"city": "beograd"}, "modems.csv", "Invalid city: beograd"},
		{"not csv", map[string]string{"city": "novi_sad"}, "modems.xlsx", "Invalid file type. Please upload a CSV file."},
	}
	a := newTestApp(t)
	r := newRouter(a)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(r, uploadRequest(t, tc.fields, tc.fileName, testReport()))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status %d: %s", w.Code, w.Body.String())
			}
			var body errResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Error != tc.wantErr {
				t.Fatalf("got %+v want error %q", body, tc.wantErr)
			}
		})
	}
}

func TestUploadAcceptsUppercaseExtensionAndCity(t *testing.T) {
	r := newRouter(newTestApp(t))
	w := serve(r, uploadRequest(t, map[string]string{"city": "Sombor"}, "REPORT.CSV", testReport()))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if res := decodeResult(t, w); res.City != report.Sombor {
		t.Fatalf("city=%q", res.City)
	}
}

func TestUploadTooLarge(t *testing.T) {
	a := newTestApp(t)
	a.maxUpload = 64
	w := serve(newRouter(a), uploadRequest(t, map[string]string{"city": "novi_sad"}, "modems.csv", testReport()))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadAnalysisFailure(t *testing.T) {
	r := newRouter(newTestApp(t))
	w := serve(r, uploadRequest(t, map[string]string{"city": "novi_sad"}, "modems.csv", "MAC,USP\nm1,40\n"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var body errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if !strings.HasPrefix(body.Error, "Error processing file: ") {
		t.Fatalf("error=%q", body.Error)
	}

	// A failed upload stores nothing.
	w = serve(r, httptest.NewRequest(http.MethodGet, "/get_latest/novi_sad", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("latest status %d", w.Code)
	}
}

func TestUploadThenLatest(t *testing.T) {
	r := newRouter(newTestApp(t))

	first := mustUpload(t, r, "novi_sad")
	if !first.Success || first.City != report.NoviSad || first.Timestamp.IsZero() {
		t.Fatalf("unexpected result: %+v", first)
	}
	s := first.Summary
	if s.TotalModems != 3 || s.UspDspCount != 1 || s.UspDspDssCount != 2 {
		t.Fatalf("summary: %+v", s)
	}
	if first.NewEntries == nil || first.NewEntries.NewAmpCount != 1 || first.NewEntries.NewOnCount != 1 || first.NewEntries.NewDssCount != 1 {
		t.Fatalf("first upload marks every row new: %+v", first.NewEntries)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/get_latest/novi_sad", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("latest status %d: %s", w.Code, w.Body.String())
	}
	latest := decodeResult(t, w)
	if !latest.Timestamp.Equal(first.Timestamp) || latest.Summary.TotalModems != 3 || len(latest.TopAmp) != 1 {
		t.Fatalf("latest differs from upload: %+v", latest)
	}

	second := mustUpload(t, r, "novi_sad")
	if second.NewEntries == nil || second.NewEntries.Total() != 0 {
		t.Fatalf("repeat upload has new entries: %+v", second.NewEntries)
	}
	if second.TopAmp[0].IsNew {
		t.Fatalf("repeat upload marks AMP row new")
	}

	// Other cities are untouched.
	w = serve(r, httptest.NewRequest(http.MethodGet, "/get_latest/sombor", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("sombor status %d", w.Code)
	}
}

func TestLatestErrors(t *testing.T) {
	r := newRouter(newTestApp(t))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/get_latest/vrsac", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
	var body errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Success || body.Error != "No data available for this city" {
		t.Fatalf("body: %+v", body)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/get_latest/atlantis", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}

func TestCities(t *testing.T) {
	r := newRouter(newTestApp(t))
	mustUpload(t, r, "kikinda")

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/cities", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var body struct {
		Default string     `json:"default"`
		Cities  []cityInfo `json:"cities"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Default != "novi_sad" || len(body.Cities) != len(report.Cities) {
		t.Fatalf("body: %+v", body)
	}
	for _, c := range body.Cities {
		wantData := c.ID == report.Kikinda
		if c.HasData != wantData || (c.LastUpload != nil) != wantData {
			t.Fatalf("city %s: has_data=%v last_upload=%v", c.ID, c.HasData, c.LastUpload)
		}
		if c.ID == report.Vrsac && c.Name != "Vršac" {
			t.Fatalf("vrsac name=%q", c.Name)
		}
	}
}

func TestHealthz(t *testing.T) {
	w := serve(newRouter(newTestApp(t)), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestDashboardPage(t *testing.T) {
	w := serve(newRouter(newTestApp(t)), httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Bad Modems Dashboard") {
		t.Fatalf("dashboard page not served")
	}
}

func TestDashboardScriptGuards(t *testing.T) {
	page := dashboardHTML
	// A rejected file supersedes requests still in flight.
	reject := strings.Index(page, "showPanel('error', 'Please select a CSV file')")
	if reject < 0 || !strings.Contains(page[max(0, reject-80):reject], "state.seq += 1") {
		t.Fatalf("non-csv rejection does not advance the request sequence")
	}
	// The trend chart lives outside the result chart handles.
	if strings.Contains(page, "renderChart('trend'") {
		t.Fatalf("trend chart stored with the result charts")
	}
	if strings.Contains(page, "body.innerHTML = '';") {
		t.Fatalf("table body cleared before being overwritten")
	}
	if n := strings.Count(page, "renderChart('"); n != 4 {
		t.Fatalf("result charts rendered through renderChart: %d, want 4", n)
	}
}
