package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arty021/bad-modems/internal/charts"
	"github.com/arty021/bad-modems/internal/report"
	"github.com/arty021/bad-modems/internal/view"
)

// pngRenderer writes every chart to <dir>/<kind>.png.
type pngRenderer struct {
	dir string
}

func newPNGRenderer(dir string) *pngRenderer {
	return &pngRenderer{dir: dir}
}

// pngHandle is a chart file on disk. Destroy removes it.
type pngHandle struct {
	path string
}

func (h *pngHandle) Destroy() error {
	if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (r *pngRenderer) RenderChart(kind view.ChartKind, res *report.Result, prev view.ChartHandle) (view.ChartHandle, error) {
	if prev != nil {
		if err := prev.Destroy(); err != nil {
			return prev, fmt.Errorf("remove previous %s chart: %w", kind, err)
		}
	}

	var buf bytes.Buffer
	if err := charts.Render(kind, res, &buf); err != nil {
		if errors.Is(err, charts.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}
	path := filepath.Join(r.dir, string(kind)+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return &pngHandle{path: path}, nil
}
