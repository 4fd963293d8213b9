package program

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/2beens/rehabtracker/internal/auth"
	"github.com/2beens/rehabtracker/internal/policy"
	"github.com/2beens/rehabtracker/internal/telemetry/metrics"
	"github.com/2beens/rehabtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// maxSets bounds the completion state of one entry.
const maxSets = 100

// maxStoredInt is the largest value the integer columns hold.
const maxStoredInt = math.MaxInt32

// Service runs the program operations: the policy decides first, then the input is validated,
// then the store is touched.
type Service struct {
	store          Store
	metricsManager *metrics.Manager
}

func NewService(store Store, metricsManager *metrics.Manager) *Service {
	return &Service{
		store:          store,
		metricsManager: metricsManager,
	}
}

func (s *Service) Create(ctx context.Context, principal auth.Principal, params CreateParams) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.program.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.authorize(principal, policy.ActionAssign, params.PatientID); err != nil {
		return -1, err
	}
	if err := validateCreate(params); err != nil {
		return -1, err
	}

	entry := Entry{
		PatientID:       params.PatientID,
		Date:            params.Date,
		Name:            params.Name,
		Repetitions:     params.Repetitions,
		Sets:            params.Sets,
		Weight:          params.Weight,
		RestTimeSeconds: *params.RestTimeSeconds,
		CompletionState: make([]bool, params.Sets),
	}

	id, err := s.store.Create(ctx, entry)
	if err != nil {
		return -1, fmt.Errorf("store create: %w", err)
	}
	span.SetAttributes(attribute.Int64("entry.id", id))

	if s.metricsManager != nil {
		s.metricsManager.CounterEntriesCreated.Inc()
	}
	log.Debugf("program entry %d assigned to patient %s for %s", id, params.PatientID, params.Date)

	return id, nil
}

func (s *Service) Update(ctx context.Context, principal auth.Principal, id int64, params UpdateParams) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.program.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	if err := s.authorize(principal, policy.ActionModifyProgram, ""); err != nil {
		return err
	}
	if err := validateUpdate(params); err != nil {
		return err
	}

	// nothing to write, but an unknown id is still reported
	if params.IsEmpty() {
		_, err := s.store.Get(ctx, id)
		return err
	}

	// sets and completion state are not reconciled here, a therapist can change
	// the number of sets without resizing the state
	return s.store.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, principal auth.Principal, id int64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.program.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	if err := s.authorize(principal, policy.ActionDeleteProgram, ""); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if s.metricsManager != nil {
		s.metricsManager.CounterEntriesDeleted.Inc()
	}
	return nil
}

// List returns the entries of one patient for one day. patientID may be the self token.
func (s *Service) List(ctx context.Context, principal auth.Principal, patientID, date string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.program.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ownerID := policy.ResolveOwner(principal, patientID)
	span.SetAttributes(attribute.String("patient_id", ownerID))
	span.SetAttributes(attribute.String("date", date))

	if err := s.authorize(principal, policy.ActionViewProgram, ownerID); err != nil {
		return nil, err
	}
	if date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}

	return s.store.ListByPatientAndDate(ctx, ownerID, date)
}

// UpdateCompletionState replaces the whole completion state of an entry.
// The length is not checked against the number of sets.
func (s *Service) UpdateCompletionState(ctx context.Context, principal auth.Principal, id int64, payload json.RawMessage) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.program.update-completion")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	if err := s.authorize(principal, policy.ActionUpdateCompletion, ""); err != nil {
		return err
	}

	state, err := ParseCompletionState(payload)
	if err != nil {
		return err
	}

	if err := s.store.UpdateCompletionState(ctx, id, state); err != nil {
		return err
	}

	if s.metricsManager != nil {
		s.metricsManager.CounterCompletionUpdates.Inc()
	}
	return nil
}

func (s *Service) authorize(principal auth.Principal, action policy.Action, ownerID string) error {
	err := policy.Authorize(principal, action, ownerID)
	if errors.Is(err, policy.ErrUnauthorized) && s.metricsManager != nil {
		s.metricsManager.CounterUnauthorizedDecisions.WithLabelValues(string(action)).Inc()
	}
	return err
}

func validateCreate(params CreateParams) error {
	switch {
	case params.PatientID == "":
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	case params.Date == "":
		return fmt.Errorf("%w: date is required", ErrValidation)
	case params.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case params.Repetitions <= 0:
		return fmt.Errorf("%w: repetitions must be positive", ErrValidation)
	case params.Repetitions > maxStoredInt:
		return fmt.Errorf("%w: repetitions cannot exceed %d", ErrValidation, maxStoredInt)
	case params.Sets <= 0:
		return fmt.Errorf("%w: sets must be positive", ErrValidation)
	case params.Sets > maxSets:
		return fmt.Errorf("%w: sets cannot exceed %d", ErrValidation, maxSets)
	case params.RestTimeSeconds == nil:
		return fmt.Errorf("%w: rest_time is required", ErrValidation)
	case *params.RestTimeSeconds < 0:
		return fmt.Errorf("%w: rest_time cannot be negative", ErrValidation)
	case *params.RestTimeSeconds > maxStoredInt:
		return fmt.Errorf("%w: rest_time cannot exceed %d", ErrValidation, maxStoredInt)
	case params.Weight != nil && *params.Weight < 0:
		return fmt.Errorf("%w: weight cannot be negative", ErrValidation)
	}
	return nil
}

func validateUpdate(params UpdateParams) error {
	switch {
	case params.Name != nil && *params.Name == "":
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	case params.Repetitions != nil && *params.Repetitions <= 0:
		return fmt.Errorf("%w: repetitions must be positive", ErrValidation)
	case params.Repetitions != nil && *params.Repetitions > maxStoredInt:
		return fmt.Errorf("%w: repetitions cannot exceed %d", ErrValidation, maxStoredInt)
	case params.Sets != nil && *params.Sets <= 0:
		return fmt.Errorf("%w: sets must be positive", ErrValidation)
	case params.Sets != nil && *params.Sets > maxSets:
		return fmt.Errorf("%w: sets cannot exceed %d", ErrValidation, maxSets)
	case params.RestTimeSeconds != nil && *params.RestTimeSeconds < 0:
		return fmt.Errorf("%w: rest_time cannot be negative", ErrValidation)
	case params.RestTimeSeconds != nil && *params.RestTimeSeconds > maxStoredInt:
		return fmt.Errorf("%w: rest_time cannot exceed %d", ErrValidation, maxStoredInt)
	case params.Weight != nil && *params.Weight < 0:
		return fmt.Errorf("%w: weight cannot be negative", ErrValidation)
	case params.Weight != nil && params.ClearWeight:
		return fmt.Errorf("%w: weight both set and cleared", ErrValidation)
	}
	return nil
}
