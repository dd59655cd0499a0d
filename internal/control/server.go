package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"listingcrawler/pkg/crawler"
	"listingcrawler/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Controller is the part of a crawl session the API exposes
type Controller interface {
	Status() crawler.Status
	Resume() error
	Skip() error
}

type handler struct {
	ctl    Controller
	logger logger.Logger
}

// NewRouter builds the control API routes:
//
//	GET  /status  session snapshot
//	POST /resume  re-fetch the page blocked by verification
//	POST /skip    abandon the page blocked by verification
func NewRouter(ctl Controller, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.GetLogger()
	}
	h := &handler{ctl: ctl, logger: log.WithField("component", "control")}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, requestLogger(h.logger), middleware.Recoverer)

	r.Get("/status", h.status)
	r.Post("/resume", h.decide(ctl.Resume, "resume"))
	r.Post("/skip", h.decide(ctl.Skip, "skip"))
	return r
}

// NewServer creates the HTTP server for the control API on addr
func NewServer(addr string, ctl Controller, log logger.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(ctl, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully
func Serve(ctx context.Context, srv *http.Server, log logger.Logger) error {
	if log == nil {
		log = logger.GetLogger()
	}
	errCh := make(chan error, 1)
	go func() {
		log.InfoWithFields("Control API listening", map[string]interface{}{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Control API stopped")
	return nil
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Status())
}

func (h *handler) decide(fn func() error, decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := h.ctl.Status().CurrentPage
		if err := fn(); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, crawler.ErrNotPaused) {
				status = http.StatusConflict
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"decision": decision,
			"page":     page,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs each request with a request id, status and duration
func requestLogger(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.LogRequest(log.WithField("request_id", requestID), r.Method, r.URL.Path, ww.Status(), time.Since(start).Milliseconds())
		})
	}
}
