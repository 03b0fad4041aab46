package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"jiskefet/internal/bootstrap/logging"
	"jiskefet/internal/errs"
)

const maxBodyBytes = 32 << 20

// envelope is the single response shape of the API. Exactly one of Data or
// Errors is set.
type envelope struct {
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
	Errors []apiError     `json:"errors,omitempty"`
}

type apiError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any, meta map[string]any) {
	writeJSON(w, status, envelope{Data: data, Meta: meta})
}

func writeError(w http.ResponseWriter, status int, title string, detail string, meta map[string]any) {
	writeJSON(w, status, envelope{
		Meta: meta,
		Errors: []apiError{{
			Status: strconv.Itoa(status),
			Title:  title,
			Detail: detail,
		}},
	})
}

func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure renders err by its kind. Store failure details stay in the log.
func writeFailure(w http.ResponseWriter, err error, meta map[string]any) {
	kind := errs.KindOf(err)
	detail := err.Error()
	if kind == errs.KindPersistence {
		detail = "the request could not be completed by the store"
	}
	writeError(w, statusForKind(kind), string(kind), detail, meta)
}

// fail answers with the error envelope. Persistence failures are also noted
// in the diagnostic sink; meta.diagnosticWritten tells the caller whether the
// note was accepted.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errs.KindOf(err) != errs.KindPersistence {
		logging.Warn(ctx, "request rejected", slog.Any("err", errs.Loggable(err)))
		writeFailure(w, err, nil)
		return
	}

	logging.Error(ctx, "request failed", slog.Any("err", errs.Loggable(err)))
	written := false
	if s.sink != nil {
		written = s.sink.Record(ctx, "error", "Request "+r.Method+" "+routePattern(r)+" failed in the store.")
	}
	writeFailure(w, err, map[string]any{"diagnosticWritten": written})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Validationf("request body is required")
		}
		return errs.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errs.Validationf("%s must be an integer, got %q", name, raw)
	}
	return value, nil
}

func uint64Param(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, errs.Validationf("%s must be a positive integer, got %q", name, raw)
	}
	return value, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Validationf("%s must be an integer, got %q", name, raw)
	}
	return value, nil
}

func pageMeta(total int64, size int, number int) map[string]any {
	return map[string]any{"total": total, "pageSize": size, "pageNumber": number}
}
