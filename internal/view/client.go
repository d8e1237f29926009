package view

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arty021/bad-modems/internal/report"
)

// HTTPClient is a Backend talking to the dashboard server.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the server at baseURL. A nil hc uses a
// client with a one minute timeout.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: time.Minute}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *HTTPClient) Latest(ctx context.Context, city report.City) (*report.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get_latest/"+url.PathEscape(string(city)), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get latest %s: unexpected status %s", city, resp.Status)
	}
	var res report.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode latest %s: %w", city, err)
	}
	return &res, nil
}

// Cities lists the cities the server accepts.
func (c *HTTPClient) Cities(ctx context.Context) ([]CityInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/cities", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list cities: unexpected status %s", resp.Status)
	}
	var body struct {
		Cities []CityInfo `json:"cities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode cities: %w", err)
	}
	return body.Cities, nil
}

// CityInfo is one entry of the server's city list.
type CityInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	HasData    bool       `json:"has_data"`
	LastUpload *time.Time `json:"last_upload,omitempty"`
}

// Upload posts file as multipart form data. The response body is decoded
// whatever the status, since rejections carry their message in it.
func (c *HTTPClient) Upload(ctx context.Context, file File, city report.City) (*report.Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := writeUpload(mw, file, city); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var res report.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode upload response (%s): %w", resp.Status, err)
	}
	return &res, nil
}

func writeUpload(mw *multipart.Writer, file File, city report.City) error {
	fw, err := mw.CreateFormFile("file", file.Name())
	if err != nil {
		return err
	}
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	if _, err := io.Copy(fw, rc); err != nil {
		return fmt.Errorf("read %s: %w", file.Name(), err)
	}
	if err := mw.WriteField("city", string(city)); err != nil {
		return err
	}
	return mw.Close()
}
