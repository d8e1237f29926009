// Package view implements the dashboard view controller: it owns the view
// state of one dashboard session, turns user actions into backend requests
// and pushes the outcome to a rendering surface.
package view

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/arty021/bad-modems/internal/charts"
	"github.com/arty021/bad-modems/internal/report"
)

// Panel is the content area currently shown. Exactly one panel is visible at
// a time.
type Panel int

const (
	PanelIdle Panel = iota
	PanelLoading
	PanelResults
	PanelNoData
	PanelError
)

func (p Panel) String() string {
	switch p {
	case PanelLoading:
		return "loading"
	case PanelResults:
		return "results"
	case PanelNoData:
		return "no-data"
	case PanelError:
		return "error"
	}
	return "idle"
}

// ChartKind aliases the chart kinds the controller keeps handles for.
type ChartKind = charts.Kind

// ChartHandle is a drawn chart that holds resources until destroyed.
type ChartHandle interface {
	Destroy() error
}

// ChartRenderer draws one chart. Implementations destroy prev, when non-nil,
// before creating the new chart. A nil handle with a nil error means there
// was nothing to draw. When prev cannot be destroyed the renderer returns
// prev with the error, so the controller keeps tracking it.
type ChartRenderer interface {
	RenderChart(kind ChartKind, res *report.Result, prev ChartHandle) (ChartHandle, error)
}

// Surface is the rendering target of the controller.
type Surface interface {
	SetActiveCity(city report.City)
	// SetFileInfo shows the selected file name; an empty name restores the
	// upload widget.
	SetFileInfo(name string)
	// ShowPanel makes p the only visible panel. message is the error text for
	// PanelError and an optional notice for PanelNoData.
	ShowPanel(p Panel, message string)
	RenderHealth(h Health)
	RenderNewEntries(n *report.NewEntries)
	RenderTable(t Table)
	ScrollToResults()
}

// ErrNoData reports that the backend holds no result for a city.
var ErrNoData = errors.New("no data available for this city")

// Backend is the server API the controller talks to.
type Backend interface {
	Latest(ctx context.Context, city report.City) (*report.Result, error)
	// Upload returns the decoded response body, which carries Success false
	// and an Error message when the server rejected the report.
	Upload(ctx context.Context, file File, city report.City) (*report.Result, error)
}

// File is a report selected for upload.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// LocalFile is a File on the local file system.
type LocalFile string

func (f LocalFile) Name() string { return filepath.Base(string(f)) }

func (f LocalFile) Open() (io.ReadCloser, error) { return os.Open(string(f)) }
