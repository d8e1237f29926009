package view

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/arty021/bad-modems/internal/charts"
	"github.com/arty021/bad-modems/internal/report"
)

var (
	// ErrStale is returned when a response arrived after a newer request was
	// issued; the response is dropped.
	ErrStale  = errors.New("response superseded by a newer request")
	ErrNotCSV = errors.New("not a csv file")
)

const (
	msgNotCSV        = "Please select a CSV file"
	msgUploadFailed  = "An error occurred while processing the file"
	msgNetworkPrefix = "Network error: "
	msgLoadFailed    = "Could not load the latest results: "
)

type Config struct {
	Backend Backend
	Surface Surface
	// Charts is optional; without it no charts are drawn.
	Charts ChartRenderer
	Logger *zap.Logger
	// City is the initially active city, the default city when unset.
	City report.City
}

// State is a snapshot of the view state.
type State struct {
	City    report.City
	File    File
	Panel   Panel
	Message string
	Result  *report.Result
	Charts  map[ChartKind]ChartHandle
}

// Controller owns the view state of one dashboard session. Requests run
// without holding the lock, so a new action never waits for an older one;
// responses of superseded requests are discarded.
type Controller struct {
	backend Backend
	surface Surface
	charts  ChartRenderer
	log     *zap.Logger

	mu    sync.Mutex
	seq   uint64
	state State
}

func New(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	city := cfg.City
	if !city.Valid() {
		city = report.DefaultCity
	}
	return &Controller{
		backend: cfg.Backend,
		surface: cfg.Surface,
		charts:  cfg.Charts,
		log:     log,
		state: State{
			City:   city,
			Panel:  PanelIdle,
			Charts: make(map[ChartKind]ChartHandle, len(charts.Kinds)),
		},
	}
}

// State returns a copy of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Charts = maps.Clone(c.state.Charts)
	return s
}

// Start loads the latest result of the default city.
func (c *Controller) Start(ctx context.Context) error {
	return c.SwitchCity(ctx, report.DefaultCity)
}

// SwitchCity makes city the active tab, drops the file selection and loads
// the latest stored result of the city.
func (c *Controller) SwitchCity(ctx context.Context, city report.City) error {
	if !city.Valid() {
		return fmt.Errorf("%w: %s", report.ErrUnknownCity, city)
	}
	c.mu.Lock()
	c.state.City = city
	c.surface.SetActiveCity(city)
	c.clearFileLocked()
	c.mu.Unlock()
	return c.FetchLatest(ctx, city)
}

// FetchLatest shows the stored result of city. A missing result shows the
// no-data panel. Any other failure falls back to the no-data panel as well,
// with the failure text as notice.
func (c *Controller) FetchLatest(ctx context.Context, city report.City) error {
	seq := c.begin()
	res, err := c.backend.Latest(ctx, city)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.log.Debug("dropping stale latest result", zap.String("city", string(city)))
		return ErrStale
	}
	switch {
	case err == nil && res != nil && res.Success:
		c.renderLocked(res)
	case errors.Is(err, ErrNoData):
		c.showLocked(PanelNoData, "")
	default:
		if err == nil {
			err = errors.New("server returned no usable result")
		}
		c.log.Warn("loading latest results failed", zap.String("city", string(city)), zap.Error(err))
		c.showLocked(PanelNoData, msgLoadFailed+err.Error())
	}
	return nil
}

// SelectFile accepts a report whose name ends in .csv and uploads it for the
// active city right away. Other files show a validation error and issue no
// request.
func (c *Controller) SelectFile(ctx context.Context, f File) error {
	if !strings.HasSuffix(f.Name(), ".csv") {
		c.mu.Lock()
		// Supersede any request still in flight so it cannot replace the
		// validation error.
		c.seq++
		c.showLocked(PanelError, msgNotCSV)
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotCSV, f.Name())
	}
	c.mu.Lock()
	c.state.File = f
	city := c.state.City
	c.surface.SetFileInfo(f.Name())
	c.mu.Unlock()
	return c.UploadAndAnalyze(ctx, f, city)
}

// ClearFile drops the file selection and hides a shown error.
func (c *Controller) ClearFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearFileLocked()
}

// UploadAndAnalyze sends f for analysis as a report of city and shows the
// returned result or the reason it failed.
func (c *Controller) UploadAndAnalyze(ctx context.Context, f File, city report.City) error {
	seq := c.begin()
	res, err := c.backend.Upload(ctx, f, city)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.log.Debug("dropping stale upload response", zap.String("city", string(city)))
		return ErrStale
	}
	switch {
	case err != nil:
		c.log.Warn("upload failed", zap.String("file", f.Name()), zap.Error(err))
		c.showLocked(PanelError, msgNetworkPrefix+err.Error())
	case res == nil || !res.Success:
		msg := msgUploadFailed
		if res != nil && res.Error != "" {
			msg = res.Error
		}
		c.showLocked(PanelError, msg)
	default:
		c.renderLocked(res)
	}
	return nil
}

// RenderResults shows res. Rendering the same result again yields the same
// view and replaces, rather than adds, chart handles.
func (c *Controller) RenderResults(res *report.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderLocked(res)
}

// begin starts a request: it takes the next sequence number and shows the
// loading panel.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.showLocked(PanelLoading, "")
	return c.seq
}

func (c *Controller) showLocked(p Panel, message string) {
	c.state.Panel = p
	c.state.Message = message
	c.surface.ShowPanel(p, message)
}

func (c *Controller) clearFileLocked() {
	c.state.File = nil
	c.surface.SetFileInfo("")
	if c.state.Panel == PanelError {
		c.showLocked(PanelIdle, "")
	}
}

func (c *Controller) renderLocked(res *report.Result) {
	c.state.Result = res
	c.showLocked(PanelResults, "")
	c.surface.RenderHealth(buildHealth(res))

	var entries *report.NewEntries
	if res.NewEntries != nil && res.NewEntries.Total() > 0 {
		entries = res.NewEntries
	}
	c.surface.RenderNewEntries(entries)

	for _, t := range BuildTables(res) {
		c.surface.RenderTable(t)
	}
	c.renderChartsLocked(res)
	c.surface.ScrollToResults()
}

func (c *Controller) renderChartsLocked(res *report.Result) {
	if c.charts == nil {
		return
	}
	for _, kind := range charts.Kinds {
		h, err := c.charts.RenderChart(kind, res, c.state.Charts[kind])
		if err != nil {
			c.log.Warn("chart render failed", zap.String("chart", string(kind)), zap.Error(err))
		}
		if h == nil {
			delete(c.state.Charts, kind)
			continue
		}
		c.state.Charts[kind] = h
	}
}
