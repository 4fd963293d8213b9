package report

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/rehabtracker/internal/auth"
	"github.com/2beens/rehabtracker/internal/policy"
	"github.com/2beens/rehabtracker/internal/telemetry/tracing"
	"github.com/2beens/rehabtracker/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=report_mocks_test.go -package=report_test

type reportGenerator interface {
	Generate(ctx context.Context, principal auth.Principal, patientID, start, end string) (string, error)
}

type GenerateResponse struct {
	FilePath string `json:"file_path"`
}

type Handler struct {
	generator reportGenerator
}

func NewHandler(generator reportGenerator) *Handler {
	return &Handler{
		generator: generator,
	}
}

func (handler *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.report.generate")
	defer span.End()

	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "Unauthenticated", http.StatusUnauthorized)
		return
	}

	patientID := mux.Vars(r)["patientId"]
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	ref, err := handler.generator.Generate(ctx, principal, patientID, startDate, endDate)
	if err != nil {
		switch {
		case errors.Is(err, policy.ErrUnauthorized):
			log.Debugf("generate report: %s", err)
			pkg.WriteJSONError(w, "Unauthorized", http.StatusForbidden)
		case errors.Is(err, ErrValidation):
			pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNoData):
			pkg.WriteJSONError(w, "No exercises found for the given date range.", http.StatusNotFound)
		default:
			log.Errorf("generate report for %s [%s, %s]: %s", patientID, startDate, endDate, err)
			pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteJSON(w, GenerateResponse{FilePath: ref}, http.StatusOK)
}
