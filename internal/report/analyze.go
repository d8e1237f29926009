package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Signal thresholds. A modem is a power issue when USP or DSP is outside its
// window, and a signal issue when DSS drops below dssLow.
const (
	uspHigh = 50.9
	uspLow  = 33.0
	dspHigh = 14.9
	dspLow  = -6.9
	dssLow  = 36.0
)

const (
	topAmpLimit = 10
	topOnLimit  = 10
	topDssLimit = 20

	// Positional columns: F carries the DSS value, N the ON display name.
	dssColumn    = 5
	onNameColumn = 13
)

var onNodePattern = regexp.MustCompile(`ON-\d+-\d+`)

var ErrMissingColumn = errors.New("missing column")

type modem struct {
	usp, dsp, dss          float64
	hasUsp, hasDsp, hasDss bool
	amp                    string
	onNode                 string
	onName                 string
}

func (m modem) uspBad() bool { return m.hasUsp && (m.usp > uspHigh || m.usp < uspLow) }
func (m modem) dspBad() bool { return m.hasDsp && (m.dsp > dspHigh || m.dsp < dspLow) }
func (m modem) dssBad() bool { return m.hasDss && m.dss < dssLow }
func (m modem) powerBad() bool {
	return m.uspBad() || m.dspBad()
}

// tally accumulates counts for one AMP or ON node. order is the position of
// the first row that made the unit bad and breaks ranking ties.
type tally struct {
	key   string
	bad   int
	usp   int
	dsp   int
	order int
}

type tallies struct {
	byKey map[string]*tally
	next  int
}

func newTallies() *tallies {
	return &tallies{byKey: make(map[string]*tally)}
}

func (t *tallies) get(key string) *tally {
	entry, ok := t.byKey[key]
	if !ok {
		entry = &tally{key: key, order: t.next}
		t.next++
		t.byKey[key] = entry
	}
	return entry
}

// top returns the n units with the most bad rows, ties in first-seen order.
func (t *tallies) top(n int) []*tally {
	out := make([]*tally, 0, len(t.byKey))
	for _, v := range t.byKey {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].bad != out[j].bad {
			return out[i].bad > out[j].bad
		}
		return out[i].order < out[j].order
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Analyze reads a modem CSV report and computes the summary counts and the
// three ranked tables. Percentages in the summary and per row are filled in;
// IsNew and NewEntries are left for MarkNew.
func Analyze(r io.Reader) (*Result, error) {
	modems, err := readModems(r)
	if err != nil {
		return nil, err
	}

	names := resolveOnNames(modems)
	ampTotals := make(map[string]int)
	onTotals := make(map[string]int)
	amps := newTallies()
	nodes := newTallies()
	dss := newTallies()

	var summary Summary
	for _, m := range modems {
		if m.hasUsp && m.hasDsp && m.hasDss {
			summary.TotalModems++
		}
		if m.amp != "" {
			ampTotals[m.amp]++
		}
		if m.onNode != "" {
			onTotals[m.onNode]++
		}

		if m.powerBad() {
			summary.UspDspCount++
			if m.amp != "" {
				countPower(amps.get(m.amp), m)
			}
			if m.onNode != "" {
				countPower(nodes.get(m.onNode), m)
			}
		}
		if m.powerBad() || m.dssBad() {
			summary.UspDspDssCount++
		}
		if m.dssBad() && m.onNode != "" {
			dss.get(m.onNode).bad++
		}
	}
	summary.fill()

	res := &Result{Success: true, Summary: summary}
	res.TopAmp = make([]AmpRow, 0, topAmpLimit)
	for i, t := range amps.top(topAmpLimit) {
		res.TopAmp = append(res.TopAmp, AmpRow{
			Rank:       i + 1,
			AmpName:    t.key,
			AmpCode:    ampCode(t.key),
			BadCount:   t.bad,
			TotalCount: ampTotals[t.key],
			Percentage: ratio(t.bad, ampTotals[t.key], 1),
			UspCount:   t.usp,
			DspCount:   t.dsp,
		})
	}
	res.TopOn = make([]NodeRow, 0, topOnLimit)
	for i, t := range nodes.top(topOnLimit) {
		res.TopOn = append(res.TopOn, NodeRow{
			Rank:       i + 1,
			OnNode:     t.key,
			OnName:     names[t.key],
			BadCount:   t.bad,
			TotalCount: onTotals[t.key],
			Percentage: ratio(t.bad, onTotals[t.key], 1),
			UspCount:   t.usp,
			DspCount:   t.dsp,
		})
	}
	res.TopDss = make([]DssRow, 0, topDssLimit)
	for i, t := range dss.top(topDssLimit) {
		res.TopDss = append(res.TopDss, DssRow{
			Rank:       i + 1,
			OnNode:     t.key,
			OnName:     names[t.key],
			BadCount:   t.bad,
			DssCount:   t.bad,
			TotalCount: onTotals[t.key],
			Percentage: ratio(t.bad, onTotals[t.key], 1),
		})
	}
	return res, nil
}

func countPower(t *tally, m modem) {
	t.bad++
	if m.uspBad() {
		t.usp++
	}
	if m.dspBad() {
		t.dsp++
	}
}

// fill derives the healthy and DSS-only counts and the summary percentages.
func (s *Summary) fill() {
	healthy := max(0, s.TotalModems-s.UspDspDssCount)
	dssOnly := max(0, s.UspDspDssCount-s.UspDspCount)
	s.HealthyCount = &healthy
	s.DssOnlyCount = &dssOnly
	s.UspDspPercentage = ratio(s.UspDspCount, s.TotalModems, 2)
	s.UspDspDssPercentage = ratio(s.UspDspDssCount, s.TotalModems, 2)
	s.HealthyPercentage = ratio(healthy, s.TotalModems, 2)
}

func readModems(r io.Reader) ([]modem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty report")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if len(header) <= onNameColumn {
		return nil, fmt.Errorf("%w: report has %d columns, need at least %d", ErrMissingColumn, len(header), onNameColumn+1)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	cols := make(map[string]int, 4)
	for _, name := range []string{"USP", "DSP", "dpath", "AMP_NAME"} {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols[name] = i
	}

	var modems []modem
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		var m modem
		m.usp, m.hasUsp = number(field(rec, cols["USP"]))
		m.dsp, m.hasDsp = number(field(rec, cols["DSP"]))
		m.dss, m.hasDss = number(field(rec, dssColumn))
		m.amp = strings.TrimSpace(field(rec, cols["AMP_NAME"]))
		m.onNode = onNodePattern.FindString(field(rec, cols["dpath"]))
		m.onName = strings.TrimSpace(field(rec, onNameColumn))
		modems = append(modems, m)
	}
	return modems, nil
}

// resolveOnNames picks a display name for every ON node: the first name that
// mentions the node code, else the first usable name, else "Unknown".
func resolveOnNames(modems []modem) map[string]string {
	withCode := make(map[string]string)
	first := make(map[string]string)
	seen := make(map[string]bool)
	for _, m := range modems {
		if m.onNode == "" {
			continue
		}
		seen[m.onNode] = true
		if m.onName == "" || m.onName == "-" {
			continue
		}
		if _, ok := first[m.onNode]; !ok {
			first[m.onNode] = m.onName
		}
		if _, ok := withCode[m.onNode]; !ok && strings.Contains(m.onName, m.onNode) {
			withCode[m.onNode] = m.onName
		}
	}

	names := make(map[string]string, len(seen))
	for node := range seen {
		switch {
		case withCode[node] != "":
			names[node] = withCode[node]
		case first[node] != "":
			names[node] = first[node]
		default:
			names[node] = "Unknown"
		}
	}
	return names
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ampCode is the short amplifier code shown in charts: the first token of the
// amplifier name.
func ampCode(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

// ratio returns part/total as a percentage rounded to the given number of
// decimals, or 0 when total is 0.
func ratio(part, total, decimals int) float64 {
	if total <= 0 {
		return 0
	}
	return Round(float64(part)/float64(total)*100, decimals)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
