// Command genmock generates the audit job fixtures used by the pipeline
// tests. Each fixture event exercises one classification outcome: a
// sustained run, an eyewall pattern, an unsustained wind field, a missing
// gale window, and coverage absorbed by an escalation window. It runs the
// actual engine over the generated jobs so the printed tiers can be pasted
// into test assertions.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/audit_jobs_2025.json \
//	  -reports-out data/mock/audit_reports_2025.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/gale-audit/internal/domain"
)

var base = time.Date(2025, time.September, 23, 14, 0, 0, 0, time.UTC)

// fixtureStations are the reference stations used for generated readings.
var fixtureStations = []string{"Cheung Chau", "Chek Lap Kok", "Kai Tak", "Tsing Yi", "Sha Tin"}

// jobPayload mirrors the audit job wire format.
type jobPayload struct {
	EventID  string            `json:"event_id"`
	Name     string            `json:"name"`
	Year     int               `json:"year"`
	Readings []readingPayload  `json:"readings"`
	Windows  map[string]window `json:"windows"`
}

type readingPayload struct {
	Station   string  `json:"station"`
	Timestamp string  `json:"timestamp"`
	MeanKmh   float64 `json:"mean_kmh"`
	GustKmh   float64 `json:"gust_kmh"`
}

type window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// scenario describes one fixture event as per-slot reference coverage.
type scenario struct {
	id        string
	name      string
	perSlot   []int // stations at gale force per 10-minute slot
	gale      bool
	hurricane *window
}

func scenarios() []scenario {
	return []scenario{
		{id: "saola", name: "Saola", perSlot: []int{2, 4, 5, 4, 1, 0}, gale: true},
		{id: "koinu", name: "Koinu", perSlot: []int{4, 0, 0, 4, 0, 0}, gale: true},
		{id: "talim", name: "Talim", perSlot: []int{4, 0, 4, 0, 4, 0}, gale: true},
		{id: "doksuri", name: "Doksuri", perSlot: []int{4, 4, 4, 4, 4, 4}, gale: false},
		{id: "yagi", name: "Yagi", perSlot: []int{2, 4, 4, 4, 2, 0}, gale: true,
			hurricane: &window{Start: stamp(1), End: stamp(3)}},
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the audit job fixture")
	reportsOut := flag.String("reports-out", "", "optional output path for expected reports")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fix the clock for reproducible GeneratedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	jobs := make([]jobPayload, 0, len(scenarios()))
	for _, sc := range scenarios() {
		jobs = append(jobs, buildJob(sc))
	}

	if err := writeJSON(*out, jobs); err != nil {
		return fmt.Errorf("writing job fixture: %w", err)
	}
	log.Printf("wrote %d audit jobs: %s", len(jobs), *out)

	reports, err := classifyAll(jobs)
	if err != nil {
		return err
	}
	if *reportsOut != "" {
		if err := writeJSON(*reportsOut, reports); err != nil {
			return fmt.Errorf("writing report fixture: %w", err)
		}
		log.Printf("wrote expected reports: %s", *reportsOut)
	}

	printStats(reports)
	return nil
}

func buildJob(sc scenario) jobPayload {
	job := jobPayload{
		EventID: sc.id,
		Name:    sc.name,
		Year:    2025,
		Windows: map[string]window{},
	}
	for slot, coverage := range sc.perSlot {
		for i, station := range fixtureStations {
			r := readingPayload{
				Station:   station,
				Timestamp: stamp(slot),
				MeanKmh:   30,
				GustKmh:   45,
			}
			if i < coverage {
				r.MeanKmh = 75
				r.GustKmh = 95
			}
			job.Readings = append(job.Readings, r)
		}
	}
	if sc.gale {
		job.Windows["gale"] = window{Start: stamp(0), End: stamp(12)}
	}
	if sc.hurricane != nil {
		job.Windows["hurricane"] = *sc.hurricane
	}
	return job
}

func classifyAll(jobs []jobPayload) ([]domain.EventReport, error) {
	network := domain.DefaultReferenceNetwork()
	th := domain.DefaultThresholds()

	reports := make([]domain.EventReport, 0, len(jobs))
	for i := range jobs {
		value, err := json.Marshal(&jobs[i])
		if err != nil {
			return nil, fmt.Errorf("marshal job %s: %w", jobs[i].EventID, err)
		}
		ev, err := domain.ParseRawJob(domain.RawJob{Value: value})
		if err != nil {
			return nil, fmt.Errorf("parse job %s: %w", jobs[i].EventID, err)
		}
		reports = append(reports, domain.ClassifyEvent(ev, network, th))
	}
	return reports, nil
}

func stamp(slot int) string {
	return base.Add(time.Duration(slot) * domain.IntervalCadence).Format("2006-01-02 15:04")
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(reports []domain.EventReport) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	for i := range reports {
		rep := &reports[i]
		fmt.Printf("%-10s tier=%-18s", rep.EventID, rep.Result.Tier)
		if rep.Result.Persistence != nil && rep.Result.Persistence.FirstRun != nil {
			fmt.Printf(" first_run=%s len=%d",
				rep.Result.Persistence.FirstRun.Start.Format("15:04"),
				rep.Result.Persistence.FirstRun.Intervals)
		}
		if rep.LeadTimeMin != nil {
			fmt.Printf(" lead=%dmin", *rep.LeadTimeMin)
		}
		if rep.Escalation != nil {
			fmt.Printf(" escalated=%d", rep.Escalation.Intervals)
		}
		fmt.Println()
	}

	sum := domain.Summarize(reports)
	fmt.Printf("\nTotal: %d\n", sum.TotalEvents)
	fmt.Printf("By tier: verified=%d, pattern_validated=%d, unverified=%d, no_signal=%d\n",
		sum.TierCounts[domain.TierVerified],
		sum.TierCounts[domain.TierPatternValidated],
		sum.TierCounts[domain.TierUnverified],
		sum.TierCounts[domain.TierNoSignal])
}
