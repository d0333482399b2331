package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"shopledger/internal/export"
	"shopledger/internal/loader"
	applog "shopledger/internal/log"
	"shopledger/internal/middleware/trace"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error     string `json:"error"`
	Source    string `json:"source,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeLoadError maps a loader error: a failed upstream source is 502,
// anything else 500. A request whose client went away gets no body.
func writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		logger.DebugContext(ctx, "Request cancelled", applog.FieldPath, r.URL.Path)
		return
	}

	resp := errorResponse{RequestID: trace.GetRequestID(ctx)}
	var se *loader.SourceError
	if errors.As(err, &se) {
		logger.ErrorContext(ctx, "Data source unavailable",
			applog.NewFields().WithError(err, applog.ErrorTypeUpstream).ToSlice()...)
		resp.Error = "data source unavailable"
		resp.Source = se.Source
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	logger.ErrorContext(ctx, "Request failed",
		applog.NewFields().WithError(err, applog.ErrorTypeInternal).ToSlice()...)
	resp.Error = "internal error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

// writeAttachment renders t fully before writing so a failed render can
// still be reported as a JSON error.
func writeAttachment(w http.ResponseWriter, r *http.Request, f export.Format, filename string, t export.Table) {
	var buf bytes.Buffer
	if err := export.Write(&buf, f, t); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			applog.NewFields().WithOperation(applog.OpExport).WithError(err, applog.ErrorTypeInternal).ToSlice()...)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Export served",
		applog.FieldOperation, applog.OpExport,
		applog.FieldFormat, string(f),
		"filename", filename,
		applog.FieldRows, len(t.Rows))
}

// exportFormat parses ?format=, writing a 400 when it is unsupported.
func exportFormat(w http.ResponseWriter, r *http.Request) (export.Format, bool) {
	f, err := export.ParseFormat(r.URL.Query().Get(paramFormat))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return f, true
}
