package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/rehabtracker/internal/auth"
	"github.com/2beens/rehabtracker/internal/policy"
	"github.com/2beens/rehabtracker/internal/program"
	"github.com/2beens/rehabtracker/internal/telemetry/metrics"
	"github.com/2beens/rehabtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrNoData means the range holds no entries for the patient. Not a server failure.
	ErrNoData = errors.New("no exercises found for the given date range")
	// ErrValidation means a missing or unusable range bound or patient id.
	ErrValidation = errors.New("invalid report request")
)

const (
	keyPrefix   = "reports"
	ContentType = "application/x-ndjson"
)

// Record is one line of a report. Field order is the serialization order.
type Record struct {
	Date            string   `json:"date"`
	Name            string   `json:"name"`
	Repetitions     int      `json:"repetitions"`
	Sets            int      `json:"sets"`
	Weight          *float64 `json:"weight"`
	RestTime        int      `json:"rest_time"`
	CompletionState []bool   `json:"completion_state"`
}

type rangeLister interface {
	ListByPatientInRange(ctx context.Context, patientID, start, end string) ([]program.Entry, error)
}

type Generator struct {
	entries        rangeLister
	artifacts      ArtifactStore
	metricsManager *metrics.Manager
}

func NewGenerator(entries rangeLister, artifacts ArtifactStore, metricsManager *metrics.Manager) *Generator {
	return &Generator{
		entries:        entries,
		artifacts:      artifacts,
		metricsManager: metricsManager,
	}
}

// Generate snapshots the patient's entries in [start, end] into one artifact and returns its reference.
// Running it again for the same range overwrites the artifact with the current entries.
func (g *Generator) Generate(
	ctx context.Context,
	principal auth.Principal,
	patientID, start, end string,
) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "report.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ownerID := policy.ResolveOwner(principal, patientID)
	span.SetAttributes(attribute.String("patient_id", ownerID))
	span.SetAttributes(attribute.String("start", start))
	span.SetAttributes(attribute.String("end", end))

	if err := policy.Authorize(principal, policy.ActionReportView, ownerID); err != nil {
		if g.metricsManager != nil {
			g.metricsManager.CounterUnauthorizedDecisions.WithLabelValues(string(policy.ActionReportView)).Inc()
		}
		return "", err
	}

	if start == "" || end == "" {
		return "", fmt.Errorf("%w: missing date parameters", ErrValidation)
	}
	key, err := ArtifactKey(ownerID, start, end)
	if err != nil {
		return "", err
	}

	entries, err := g.entries.ListByPatientInRange(ctx, ownerID, start, end)
	if err != nil {
		return "", fmt.Errorf("list entries: %w", err)
	}
	if len(entries) == 0 {
		if g.metricsManager != nil {
			g.metricsManager.CounterReportsNoData.Inc()
		}
		return "", ErrNoData
	}

	body, err := Encode(entries)
	if err != nil {
		return "", err
	}

	ref, err := g.artifacts.Put(ctx, key, body)
	if err != nil {
		return "", fmt.Errorf("store report artifact: %w", err)
	}

	if g.metricsManager != nil {
		g.metricsManager.CounterReportsGenerated.Inc()
		g.metricsManager.HistReportEntries.Observe(float64(len(entries)))
	}
	log.Debugf("report %s generated with %d entries", ref, len(entries))

	return ref, nil
}

// Encode writes one JSON object per entry, one per line, in the given order.
func Encode(entries []program.Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		state := e.CompletionState
		if state == nil {
			state = []bool{}
		}
		if err := enc.Encode(Record{
			Date:            e.Date,
			Name:            e.Name,
			Repetitions:     e.Repetitions,
			Sets:            e.Sets,
			Weight:          e.Weight,
			RestTime:        e.RestTimeSeconds,
			CompletionState: state,
		}); err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// ArtifactKey derives the artifact key from the report parameters.
// Parts that could leave the reports prefix are rejected.
func ArtifactKey(patientID, start, end string) (string, error) {
	parts := []struct{ name, value string }{
		{"patient id", patientID},
		{"start_date", start},
		{"end_date", end},
	}
	for _, part := range parts {
		if part.value == "" {
			return "", fmt.Errorf("%w: %s is empty", ErrValidation, part.name)
		}
		if strings.ContainsAny(part.value, `/\`) || strings.Contains(part.value, "..") {
			return "", fmt.Errorf("%w: %s contains path characters", ErrValidation, part.name)
		}
	}
	return fmt.Sprintf("%s/report_%s_%s_to_%s.jsonl", keyPrefix, patientID, start, end), nil
}
