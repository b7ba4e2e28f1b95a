package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/gale-audit/internal/domain"
)

// EventClassifier implements Classifier using the domain engine with a
// fixed reference network and default thresholds.
type EventClassifier struct {
	network    []domain.Station
	thresholds domain.Thresholds
	logger     *slog.Logger
}

// NewClassifier creates an EventClassifier.
func NewClassifier(network []domain.Station, th domain.Thresholds, logger *slog.Logger) *EventClassifier {
	return &EventClassifier{
		network:    network,
		thresholds: th,
		logger:     logger,
	}
}

// Classify parses a raw audit job and runs tier classification. A job
// that cannot be parsed returns an error; an event that fails its own
// validation still yields a report, with the failure recorded on it.
func (c *EventClassifier) Classify(_ context.Context, raw domain.RawJob) (domain.EventReport, error) {
	event, err := domain.ParseRawJob(raw)
	if err != nil {
		return domain.EventReport{}, err
	}

	rep := domain.ClassifyEvent(event, c.network, c.thresholds)
	if rep.Error != "" {
		c.logger.Warn("event failed validation", "event_id", rep.EventID, "error", rep.Error)
		return rep, nil
	}

	c.logger.Debug("event classified",
		"event_id", rep.EventID,
		"tier", rep.Result.Tier,
		"intervals", len(rep.Series),
	)
	return rep, nil
}
