// Command validate runs the classification engine offline against archived
// wind snapshot CSVs. It reads an event manifest, checks the raw data, runs
// tier classification for every event, and optionally writes the resulting
// reports as portal JSON.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -manifest data/events.yaml \
//	  -csv-dir data/snapshots \
//	  -out out/reports
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/gale-audit/internal/domain"
)

// csvTimeLayout is the timestamp format of archived wind snapshots.
const csvTimeLayout = "200601021504"

// Snapshot CSV column headers.
const (
	colTime    = "Date time"
	colStation = "Automatic Weather Station"
	colSpeed   = "10-Minute Mean Speed(km/hour)"
	colGust    = "10-Minute Maximum Gust(km/hour)"
)

// manifest describes the events to audit and where their data lives.
type manifest struct {
	Events []manifestEvent `yaml:"events"`
}

type manifestEvent struct {
	ID      string          `yaml:"id"`
	Name    string          `yaml:"name"`
	Year    int             `yaml:"year"`
	CSV     string          `yaml:"csv"`
	Windows manifestWindows `yaml:"windows"`
}

type manifestWindows struct {
	Gale      *manifestWindow `yaml:"gale"`
	Hurricane *manifestWindow `yaml:"hurricane"`
}

type manifestWindow struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	manifestPath := flag.String("manifest", "", "path to the event manifest YAML")
	csvDir := flag.String("csv-dir", "", "directory containing wind snapshot CSV files")
	outDir := flag.String("out", "", "optional output directory for report JSON")
	flag.Parse()

	if *manifestPath == "" || *csvDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*manifestPath, *csvDir, *outDir); code != 0 {
		os.Exit(code)
	}
}

func run(manifestPath, csvDir, outDir string) int {
	// Fix the clock so regenerated reports are byte-identical.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Gale Audit Validation ===")
	fmt.Println()

	man, err := loadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load manifest: %v\n", err)
		return 1
	}

	events, csvPhase := loadEvents(man, csvDir)
	windowPhase := validateWindows(events)
	reports, classifyPhase := classifyEvents(events)
	exportPhase := validateExport(reports)

	if outDir != "" {
		if err := writeReports(outDir, reports); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: write reports: %v\n", err)
			return 1
		}
		fmt.Printf("wrote %d reports to %s\n", len(reports), outDir)
	}

	phases := []*phase{csvPhase, windowPhase, classifyPhase, exportPhase}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	sum := domain.Summarize(reports)
	fmt.Println()
	fmt.Printf("Events: %d total, %d verified, %d pattern_validated, %d unverified, %d no_signal, %d errors\n",
		sum.TotalEvents,
		sum.TierCounts[domain.TierVerified],
		sum.TierCounts[domain.TierPatternValidated],
		sum.TierCounts[domain.TierUnverified],
		sum.TierCounts[domain.TierNoSignal],
		sum.Errors,
	)
	if sum.AvgLeadTimeMin != nil {
		fmt.Printf("Average lead time: %.1f min\n", *sum.AvgLeadTimeMin)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var man manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, err
	}
	if len(man.Events) == 0 {
		return nil, fmt.Errorf("manifest %s lists no events", path)
	}
	return &man, nil
}

// ── Phase 1: CSV Integrity ──
// Parses every snapshot and checks timestamps, cadence, and speeds.

func loadEvents(man *manifest, csvDir string) ([]domain.Event, *phase) {
	p := &phase{name: "Phase 1: CSV Integrity (snapshots)"}

	events := make([]domain.Event, 0, len(man.Events))
	for _, me := range man.Events {
		ev := domain.Event{ID: me.ID, Name: me.Name, Year: me.Year}

		var err error
		if ev.Windows.Gale, err = parseManifestWindow(me.Windows.Gale); err != nil {
			p.errorf("%s: gale window: %v", me.ID, err)
		}
		if ev.Windows.Hurricane, err = parseManifestWindow(me.Windows.Hurricane); err != nil {
			p.errorf("%s: hurricane window: %v", me.ID, err)
		}

		path := filepath.Join(csvDir, me.CSV)
		readings, rowErrs := loadSnapshot(path)
		for _, e := range rowErrs {
			p.errorf("%s: %s", me.ID, e)
		}
		if len(readings) == 0 {
			p.errorf("%s: no usable readings in %s", me.ID, me.CSV)
		}
		ev.Readings = readings
		events = append(events, ev)
	}
	return events, p
}

func parseManifestWindow(w *manifestWindow) (*domain.SignalWindow, error) {
	if w == nil {
		return nil, nil
	}
	start, err := domain.ParseLocalTime(w.Start)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseLocalTime(w.End)
	if err != nil {
		return nil, err
	}
	return &domain.SignalWindow{Start: start, End: end}, nil
}

// loadSnapshot parses one wind snapshot CSV. Rows with a missing or
// unparseable speed keep a nil speed so the aggregator accounts for them;
// rows with a broken timestamp are reported and dropped.
func loadSnapshot(path string) ([]domain.StationReading, []string) {
	f, err := os.Open(path)
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, []string{fmt.Sprintf("%s: read header: %v", path, err)}
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{colTime, colStation, colSpeed} {
		if _, ok := col[want]; !ok {
			return nil, []string{fmt.Sprintf("%s: missing column %q", path, want)}
		}
	}

	var readings []domain.StationReading
	var errs []string
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s line %d: %v", path, line, err))
			continue
		}

		ts, err := time.Parse(csvTimeLayout, strings.TrimSpace(row[col[colTime]]))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s line %d: bad timestamp %q", path, line, row[col[colTime]]))
			continue
		}
		if ts.Minute()%10 != 0 {
			errs = append(errs, fmt.Sprintf("%s line %d: timestamp %s off the 10-minute cadence", path, line, ts.Format("15:04")))
		}

		reading := domain.StationReading{
			Station:   strings.TrimSpace(row[col[colStation]]),
			Timestamp: ts,
			MeanKmh:   parseSpeed(row[col[colSpeed]]),
		}
		if gi, ok := col[colGust]; ok && gi < len(row) {
			reading.GustKmh = parseSpeed(row[gi])
		}
		readings = append(readings, reading)
	}
	return readings, errs
}

// parseSpeed returns nil for blank or non-numeric speed cells, matching how
// the archive encodes instrument outages ("N/A", "-").
func parseSpeed(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// ── Phase 2: Window Validation ──

func validateWindows(events []domain.Event) *phase {
	p := &phase{name: "Phase 2: Window Validation (manifest)"}
	for i := range events {
		if err := events[i].Windows.Validate(); err != nil {
			p.errorf("%s: %v", events[i].ID, err)
		}
	}
	return p
}

// ── Phase 3: Classification ──
// Runs the engine for every event and re-runs it to confirm determinism.

func classifyEvents(events []domain.Event) ([]domain.EventReport, *phase) {
	p := &phase{name: "Phase 3: Classification (tier engine)"}
	network := domain.DefaultReferenceNetwork()
	th := domain.DefaultThresholds()

	reports := make([]domain.EventReport, 0, len(events))
	for i := range events {
		rep := domain.ClassifyEvent(events[i], network, th)
		if rep.Error != "" {
			p.errorf("%s: %s", rep.EventID, rep.Error)
		}

		again := domain.ClassifyEvent(events[i], network, th)
		a, _ := json.Marshal(rep)
		b, _ := json.Marshal(again)
		if string(a) != string(b) {
			p.errorf("%s: classification is not deterministic", rep.EventID)
		}
		reports = append(reports, rep)
	}
	return reports, p
}

// ── Phase 4: Export Consistency ──
// Checks the report invariants the portal relies on.

func validateExport(reports []domain.EventReport) *phase {
	p := &phase{name: "Phase 4: Export Consistency (portal JSON)"}
	for i := range reports {
		rep := &reports[i]
		if rep.Error != "" {
			continue
		}

		if rep.Result.Tier == domain.TierVerified {
			if rep.Result.Persistence == nil || rep.Result.Persistence.FirstRun == nil {
				p.errorf("%s: verified without a first run", rep.EventID)
			}
			if rep.LeadTimeMin == nil {
				p.errorf("%s: verified without a lead time", rep.EventID)
			}
		}
		if rep.Result.Tier == domain.TierPatternValidated && rep.Result.Pattern == nil {
			p.errorf("%s: pattern_validated without pattern segments", rep.EventID)
		}

		if esc := rep.Escalation; esc != nil {
			below := 0
			for _, d := range esc.Details {
				if d.CountGale < domain.DefaultThresholds().MinStationCount {
					below++
				}
			}
			if esc.GaleCoverage+below != esc.Intervals {
				p.errorf("%s: escalation accounting: %d coverage + %d below != %d intervals",
					rep.EventID, esc.GaleCoverage, below, esc.Intervals)
			}
		}

		data, err := json.Marshal(rep)
		if err != nil {
			p.errorf("%s: marshal report: %v", rep.EventID, err)
			continue
		}
		var roundtrip domain.EventReport
		if err := json.Unmarshal(data, &roundtrip); err != nil {
			p.errorf("%s: report does not round-trip: %v", rep.EventID, err)
		}
	}
	return p
}

func writeReports(dir string, reports []domain.EventReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i := range reports {
		data, err := json.MarshalIndent(&reports[i], "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", reports[i].EventID, err)
		}
		data = append(data, '\n')
		path := filepath.Join(dir, reports[i].EventID+".json")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return err
		}
	}

	sum := domain.Summarize(reports)
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, "summary.json"), data, 0o600); err != nil {
		return err
	}

	stations := make(map[string][]domain.StationSummary, len(reports))
	for i := range reports {
		stations[reports[i].EventID] = reports[i].Stations
	}
	data, err = json.MarshalIndent(stations, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(dir, "stations.json"), data, 0o600)
}
