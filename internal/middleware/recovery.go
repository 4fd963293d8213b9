package middleware

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/2beens/rehabtracker/internal/telemetry/metrics"
	"github.com/2beens/rehabtracker/pkg"

	log "github.com/sirupsen/logrus"
)

// callerSlot is filled by AuthCheck further down the chain, so a recovered panic
// can name the principal that triggered it.
type callerSlot struct {
	principalID string
}

type callerSlotKey struct{}

func noteCaller(ctx context.Context, principalID string) {
	if slot, ok := ctx.Value(callerSlotKey{}).(*callerSlot); ok {
		slot.principalID = principalID
	}
}

func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			slot := &callerSlot{}
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"request_id":   req.Header.Get(RequestIDHeader),
						"principal_id": slot.principalID,
						"method":       req.Method,
						"path":         req.URL.Path,
					}).Errorf("http: panic serving request: %v\n%s", r, debug.Stack())
					if metricsManager != nil {
						metricsManager.CounterHandleRequestPanic.Inc()
					}
					pkg.WriteJSONError(respWriter, "internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(respWriter, req.WithContext(context.WithValue(req.Context(), callerSlotKey{}, slot)))
		})
	}
}
