package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arty021/bad-modems/internal/report"
	"github.com/arty021/bad-modems/internal/view"
)

var (
	cityStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	newRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	healthBox    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	badgeClasses = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

// terminalSurface prints the dashboard view to a terminal.
type terminalSurface struct {
	out  io.Writer
	city report.City
}

func newTerminalSurface(out io.Writer) *terminalSurface {
	return &terminalSurface{out: out}
}

func (s *terminalSurface) SetActiveCity(city report.City) {
	s.city = city
	fmt.Fprintln(s.out, cityStyle.Render(city.DisplayName()))
}

func (s *terminalSurface) SetFileInfo(name string) {
	if name == "" {
		return
	}
	fmt.Fprintln(s.out, dimStyle.Render("File: "+name))
}

func (s *terminalSurface) ShowPanel(p view.Panel, message string) {
	switch p {
	case view.PanelLoading:
		fmt.Fprintln(s.out, dimStyle.Render("Loading..."))
	case view.PanelNoData:
		fmt.Fprintln(s.out, "No data available for "+s.city.DisplayName()+". Upload a report to analyze it.")
		if message != "" {
			fmt.Fprintln(s.out, dimStyle.Render(message))
		}
	case view.PanelError:
		fmt.Fprintln(s.out, errorStyle.Render("Error: "+message))
	}
}

func (s *terminalSurface) RenderHealth(h view.Health) {
	score := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(h.Status.Color)).
		Render(fmt.Sprintf("%.1f%% %s", h.Score, h.Status.Label))
	lines := []string{
		titleStyle.Render("Network health") + "  " + score,
		fmt.Sprintf("Total modems    %d", h.TotalModems),
		fmt.Sprintf("Healthy         %d (%.1f%%)", h.Healthy, h.HealthyPercent),
		fmt.Sprintf("USP/DSP issues  %d (%.1f%%)", h.PowerIssues, h.PowerPercent),
		fmt.Sprintf("DSS only        %d (%.1f%%)", h.DssOnly, h.DssPercent),
		fmt.Sprintf("Total issues    %d (%.1f%%)", h.TotalIssues, h.TotalPercent),
	}
	if h.Updated != "" {
		lines = append(lines, dimStyle.Render("Updated "+h.Updated))
	}
	fmt.Fprintln(s.out, healthBox.Render(strings.Join(lines, "\n")))
}

func (s *terminalSurface) RenderNewEntries(n *report.NewEntries) {
	if n == nil {
		return
	}
	fmt.Fprintln(s.out, bannerStyle.Render(fmt.Sprintf("New since last upload: AMP %d, ON %d, DSS %d",
		n.NewAmpCount, n.NewOnCount, n.NewDssCount)))
}

func (s *terminalSurface) RenderTable(t view.Table) {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range t.Rows {
		for i, cell := range r.Cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, titleStyle.Render(t.Title))
	if len(t.Rows) == 0 {
		fmt.Fprintln(s.out, dimStyle.Render("no entries"))
		return
	}
	fmt.Fprintln(s.out, headerStyle.Render(joinCells(t.Columns, widths)))
	for _, r := range t.Rows {
		cells := make([]string, len(r.Cells))
		for i, cell := range r.Cells {
			cells[i] = cell
			if i < len(widths) {
				cells[i] = pad(cell, widths[i])
			}
		}
		if r.New {
			fmt.Fprintln(s.out, newRowStyle.Render(strings.Join(cells, "  ")))
			continue
		}
		// The fourth column holds the bad count badge.
		if st, ok := badgeClasses[r.Class]; ok && len(cells) > 3 {
			cells[3] = st.Render(cells[3])
		}
		fmt.Fprintln(s.out, strings.Join(cells, "  "))
	}
}

func (s *terminalSurface) ScrollToResults() {
	fmt.Fprintln(s.out)
}

// printCharts lists the chart files of the shown result.
func (s *terminalSurface) printCharts(st view.State) {
	if len(st.Charts) == 0 {
		return
	}
	paths := make([]string, 0, len(st.Charts))
	for _, h := range st.Charts {
		if ph, ok := h.(*pngHandle); ok {
			paths = append(paths, ph.path)
		}
	}
	sort.Strings(paths)
	fmt.Fprintln(s.out, dimStyle.Render("Charts: "+strings.Join(paths, ", ")))
}

func (s *terminalSurface) printCities(cities []view.CityInfo) {
	rows := make([][]string, 0, len(cities))
	for _, c := range cities {
		status := "no data"
		if c.HasData {
			status = "data"
			if c.LastUpload != nil {
				status = "last upload " + view.FormatUpdated(*c.LastUpload)
			}
		}
		rows = append(rows, []string{c.ID, c.Name, status})
	}
	widths := []int{0, 0, 0}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	for _, r := range rows {
		fmt.Fprintln(s.out, joinCells(r, widths))
	}
}

func joinCells(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = pad(c, widths[i])
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
