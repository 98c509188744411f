package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// Recover turns a handler panic into a 500 envelope and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recover(logger logging.Logger) func(http.Handler) http.Handler {
	logger = logging.OrNop(logger).Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("handler panic",
					logging.String("method", r.Method),
					logging.String("path", r.URL.Path),
					logging.String("request_id", GetRequestID(r.Context())),
					logging.String("panic", fmt.Sprint(rec)),
					logging.String("stack", string(debug.Stack())))

				resp := common.NewErrorResponse(string(errors.ErrCodeInternal), errors.DefaultMessageForCode(errors.ErrCodeInternal))
				resp.RequestID = GetRequestID(r.Context())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(resp)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
