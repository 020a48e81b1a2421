package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mcoot/scorekeeper/internal/api/response"
	"github.com/mcoot/scorekeeper/internal/dependencies/clock"
	"github.com/mcoot/scorekeeper/internal/services/tracker"
	"github.com/mcoot/scorekeeper/internal/services/transfer"
)

// MaxImportBytes bounds the size of an uploaded import document
const MaxImportBytes = 10 << 20

// TransferHandler handles import and export endpoints
type TransferHandler struct {
	tracker tracker.ControllerInterface
	clock   clock.Clock
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(t tracker.ControllerInterface, clk clock.Clock) *TransferHandler {
	return &TransferHandler{
		tracker: t,
		clock:   clk,
	}
}

// ExportJSON handles GET /api/v1/export/json
func (h *TransferHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.tracker.ExportJSON()
	if err != nil {
		WriteError(w, err)
		return
	}
	h.attachment(w, transfer.FormatJSON, "application/json", data)
}

// ExportCSV handles GET /api/v1/export/csv
func (h *TransferHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.tracker.ExportCSV()
	if err != nil {
		WriteError(w, err)
		return
	}
	h.attachment(w, transfer.FormatCSV, "text/csv; charset=utf-8", data)
}

func (h *TransferHandler) attachment(w http.ResponseWriter, format transfer.Format, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transfer.FileName(format, h.clock.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportJSON handles POST /api/v1/import/json. The body is the raw document.
func (h *TransferHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	data, ok := readImport(w, r)
	if !ok {
		return
	}

	snapshot, report, err := h.tracker.ImportJSON(r.Context(), data)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ImportResultFromReport(
		transfer.FormatJSON, len(snapshot.Games), len(snapshot.Players), report))
}

// ImportCSV handles POST /api/v1/import/csv. The body is the raw document.
func (h *TransferHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	data, ok := readImport(w, r)
	if !ok {
		return
	}

	result, report, err := h.tracker.ImportCSV(r.Context(), data)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.ImportResultFromReport(transfer.FormatCSV, len(result.Games), len(result.NewPlayers), report)
	resp.NewPlayers = response.PlayersFromModel(result.NewPlayers)
	response.JSON(w, http.StatusOK, resp)
}

func readImport(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, NewInvalidRequestError("import document is too large"))
			return nil, false
		}
		WriteError(w, NewInvalidRequestError("could not read request body"))
		return nil, false
	}
	if len(data) == 0 {
		WriteError(w, NewInvalidRequestError("import document is empty"))
		return nil, false
	}
	return data, true
}
