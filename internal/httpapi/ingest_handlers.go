package httpapi

import (
	"io"
	"net/http"

	"ledger-posting-engine/internal/ingest"
)

func writeIngestErr(w http.ResponseWriter, err error) {
	if ingestErr, ok := err.(*ingest.IngestError); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "ingest_" + ingestErr.Kind,
			"line":  ingestErr.Line,
			"field": ingestErr.Field,
			"value": ingestErr.Value,
		})
		return
	}
	writeErr(w, http.StatusBadRequest, "invalid_csv")
}

func (h *Handlers) IngestStripeSettlements(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	lines, err := ingest.ParseStripeSettlementCSV(string(body))
	if err != nil {
		writeIngestErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines, "count": len(lines)})
}

func (h *Handlers) IngestBankStatements(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	lines, err := ingest.ParseBankStatementCSV(string(body))
	if err != nil {
		writeIngestErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines, "count": len(lines)})
}
