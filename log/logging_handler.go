package log

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/autoperception/dataset-explorer/auth"
)

const requestIdHeader = "X-Request-Id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type loggingHandler struct {
	handler http.Handler
	logger  Logger
}

// NewLoggingHandler logs every request once it has been served. Requests
// without an X-Request-Id header get a generated one, echoed back in the
// response.
func NewLoggingHandler(handler http.Handler, logger Logger) http.Handler {
	return &loggingHandler{handler: handler, logger: logger}
}

func (h *loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestId := r.Header.Get(requestIdHeader)
	if requestId == "" {
		requestId = uuid.New().String()
	}
	w.Header().Set(requestIdHeader, requestId)

	start := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.handler.ServeHTTP(recorder, r)

	h.logger.Info("request served",
		"requestId", requestId,
		"method", r.Method,
		"path", r.URL.Path,
		"status", recorder.status,
		"user", auth.ContextUser(r.Context()),
		"duration", time.Since(start))
}
