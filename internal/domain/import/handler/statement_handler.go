// Package handler exposes statement parsing over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/export"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/echo-statements/internal/domain/import/service"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// Processor parses one uploaded statement.
type Processor interface {
	Process(ctx context.Context, data []byte, fileName string, progress parser.ProgressFunc) (*importservice.Result, error)
	Banks() []string
}

// StatementHandler serves the parse and health endpoints.
type StatementHandler struct {
	svc            Processor
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewStatementHandler creates a handler accepting uploads up to maxUploadMB.
func NewStatementHandler(svc Processor, maxUploadMB int, logger *slog.Logger) *StatementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &StatementHandler{
		svc:            svc,
		maxUploadBytes: int64(maxUploadMB) << 20,
		logger:         logger,
	}
}

// Routes registers the handler's endpoints on mux.
func (h *StatementHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/statements/parse", h.HandleParse)
	mux.HandleFunc("GET /v1/banks", h.HandleBanks)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
}

// ParseResponse is the JSON body returned for a parsed statement.
type ParseResponse struct {
	*importservice.Result
	Supported  bool                   `json:"supported"`
	DurationMS int64                  `json:"duration_ms"`
	Summary    *importservice.Summary `json:"summary,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleParse accepts a multipart upload in the "file" field. The optional
// format query parameter selects json (default), csv or xlsx output.
func (h *StatementHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.Warn("failed to parse multipart form", "error", err, "limit", h.maxUploadBytes)
		h.sendError(w, fmt.Sprintf("failed to parse form or request too large (max %d MB)", h.maxUploadBytes>>20), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, "failed to read upload, send the statement in the 'file' field", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadBytes {
		h.sendError(w, fmt.Sprintf("file too large, max %d MB", h.maxUploadBytes>>20), http.StatusRequestEntityTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	if _, err := sniffer.Detect(data); err != nil {
		h.sendError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}

	result, err := h.svc.Process(r.Context(), data, header.Filename, nil)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			h.logger.Warn("statement parse cancelled", "file", header.Filename, "error", err)
			h.sendError(w, "statement parsing timed out", http.StatusGatewayTimeout)
		case errors.Is(err, parser.ErrDecodeFailed):
			h.logger.Warn("statement could not be decoded", "file", header.Filename, "error", err)
			h.sendError(w, "the PDF could not be read", http.StatusUnprocessableEntity)
		default:
			h.logger.Error("statement parse failed", "file", header.Filename, "error", err)
			h.sendError(w, "an internal error occurred while processing the statement", http.StatusInternalServerError)
		}
		return
	}

	switch format {
	case export.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	case export.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.xlsx"`)
	default:
		summary, err := importservice.Summarize(result.Transactions, money.DefaultCurrency)
		if err != nil {
			h.logger.Warn("failed to summarize statement", "error", err)
		}
		h.sendJSON(w, http.StatusOK, ParseResponse{
			Result:     result,
			Supported:  !result.NoAdapter(),
			DurationMS: result.Duration.Milliseconds(),
			Summary:    summary,
		})
		return
	}

	if err := export.Write(w, format, &result.Result); err != nil {
		h.logger.Error("failed to write export", "format", format, "error", err)
	}
}

// HandleBanks lists the supported banks.
func (h *StatementHandler) HandleBanks(w http.ResponseWriter, _ *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string][]string{"banks": h.svc.Banks()})
}

// HandleHealth reports liveness.
func (h *StatementHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *StatementHandler) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *StatementHandler) sendError(w http.ResponseWriter, msg string, status int) {
	h.sendJSON(w, status, errorResponse{Error: msg})
}
