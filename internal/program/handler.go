package program

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/rehabtracker/internal/auth"
	"github.com/2beens/rehabtracker/internal/policy"
	"github.com/2beens/rehabtracker/internal/telemetry/tracing"
	"github.com/2beens/rehabtracker/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=program_mocks_test.go -package=program_test

type programService interface {
	Create(ctx context.Context, principal auth.Principal, params CreateParams) (int64, error)
	Update(ctx context.Context, principal auth.Principal, id int64, params UpdateParams) error
	Delete(ctx context.Context, principal auth.Principal, id int64) error
	List(ctx context.Context, principal auth.Principal, patientID, date string) ([]Entry, error)
	UpdateCompletionState(ctx context.Context, principal auth.Principal, id int64, payload json.RawMessage) error
}

type CreateRequest struct {
	PatientID   pkg.FlexibleID `json:"user_id"`
	Date        string         `json:"date"`
	Name        string         `json:"name"`
	Repetitions int            `json:"repetitions"`
	Sets        int            `json:"sets"`
	Weight      *float64       `json:"weight"`
	RestTime    *int           `json:"rest_time"`
}

type CreateResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// UpdateRequest is a partial update, absent fields are kept.
// Weight is raw so that an explicit null can be told apart from a missing field.
type UpdateRequest struct {
	Name            *string         `json:"name"`
	Repetitions     *int            `json:"repetitions"`
	Sets            *int            `json:"sets"`
	Weight          json.RawMessage `json:"weight"`
	RestTime        *int            `json:"rest_time"`
	CompletionState json.RawMessage `json:"completion_state"`
}

func (req UpdateRequest) toParams() (UpdateParams, error) {
	params := UpdateParams{
		Name:            req.Name,
		Repetitions:     req.Repetitions,
		Sets:            req.Sets,
		RestTimeSeconds: req.RestTime,
	}

	if len(req.Weight) > 0 {
		if string(req.Weight) == "null" {
			params.ClearWeight = true
		} else {
			var w float64
			if err := json.Unmarshal(req.Weight, &w); err != nil {
				return UpdateParams{}, fmt.Errorf("%w: weight must be a number", ErrValidation)
			}
			params.Weight = &w
		}
	}

	if len(req.CompletionState) > 0 {
		state, err := ParseCompletionState(req.CompletionState)
		if err != nil {
			return UpdateParams{}, fmt.Errorf("%w: %s", ErrValidation, err)
		}
		params.CompletionState = &state
	}

	return params, nil
}

type CompletionStateRequest struct {
	CompletionState json.RawMessage `json:"completion_state"`
}

type ListResponse struct {
	Exercises []Entry `json:"exercises"`
}

type Handler struct {
	service programService
}

func NewHandler(service programService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.create")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "Unauthenticated", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("create program entry, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := handler.service.Create(ctx, principal, CreateParams{
		PatientID:       req.PatientID.String(),
		Date:            req.Date,
		Name:            req.Name,
		Repetitions:     req.Repetitions,
		Sets:            req.Sets,
		Weight:          req.Weight,
		RestTimeSeconds: req.RestTime,
	})
	if err != nil {
		writeError(w, "create program entry", err)
		return
	}
	span.SetAttributes(attribute.Int64("entry.id", id))

	pkg.WriteJSON(w, CreateResponse{
		ID:      id,
		Message: "Exercise added successfully",
	}, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.update")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "Unauthenticated", http.StatusUnauthorized)
		return
	}

	id, err := entryIDFromPath(r)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update program entry, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params, err := req.toParams()
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.service.Update(ctx, principal, id, params); err != nil {
		writeError(w, "update program entry", err)
		return
	}

	pkg.WriteJSONMessage(w, "Exercise updated successfully", http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.delete")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "Unauthenticated", http.StatusUnauthorized)
		return
	}

	id, err := entryIDFromPath(r)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.service.Delete(ctx, principal, id); err != nil {
		writeError(w, "delete program entry", err)
		return
	}

	pkg.WriteJSONMessage(w, "Exercise deleted successfully", http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.list")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "Unauthenticated", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	patientID := vars["patientId"]
	date := r.URL.Query().Get("date")

	entries, err := handler.service.List(ctx, principal, patientID, date)
	if err != nil {
		writeError(w, "list program entries", err)
		return
	}

	pkg.WriteJSON(w, ListResponse{Exercises: entries}, http.StatusOK)
}

func (handler *Handler) HandleUpdateCompletionState(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.program.update-completion")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "Unauthenticated", http.StatusUnauthorized)
		return
	}

	id, err := entryIDFromPath(r)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CompletionStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update completion state, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "Invalid completion_state format", http.StatusUnprocessableEntity)
		return
	}

	if err := handler.service.UpdateCompletionState(ctx, principal, id, req.CompletionState); err != nil {
		writeError(w, "update completion state", err)
		return
	}

	pkg.WriteJSONMessage(w, "Completion state updated successfully", http.StatusOK)
}

func entryIDFromPath(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		return -1, errors.New("error, id empty")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return -1, errors.New("error, id NaN")
	}
	return id, nil
}

// writeError maps the service errors to status codes. Unknown errors are logged and hidden.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, policy.ErrUnauthorized):
		log.Debugf("%s: %s", op, err)
		pkg.WriteJSONError(w, "Unauthorized", http.StatusForbidden)
	case errors.Is(err, ErrValidation):
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		pkg.WriteJSONError(w, "Exercise not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidFormat):
		pkg.WriteJSONError(w, "Invalid completion_state format", http.StatusUnprocessableEntity)
	default:
		log.Errorf("%s: %s", op, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
