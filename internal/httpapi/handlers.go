// Package httpapi exposes the posting engine's external HTTP surface:
// JSON bodies in, JSON bodies out, Idempotency-Key-gated mutations, and a
// stable wire error taxonomy mapped from each component's sentinel errors.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ledger-posting-engine/internal/auditseal"
	"ledger-posting-engine/internal/journal"
	"ledger-posting-engine/internal/legalhold"
	"ledger-posting-engine/internal/metrics"
	"ledger-posting-engine/internal/orchestrator"
	"ledger-posting-engine/internal/period"
)

// Handlers bundles the engine's stores and orchestrator behind one set of
// HTTP entry points. Constructed once at boot and handed to Router.
type Handlers struct {
	Orchestrator *orchestrator.Orchestrator
	Journals     *journal.Store
	Periods      *period.Store
	LegalHolds   *legalhold.Store
	AuditSeals   *auditseal.Chain
	Checklists   *ChecklistRegistry
	Metrics      *metrics.Registry
	Capacity     *CapacityTracker
	Now          func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, errCode string) {
	writeJSON(w, code, map[string]any{"error": errCode})
}

// writeOrchestratorErr maps an orchestrator.Error (or a bare error, treated
// as a server fault) onto the wire error schema.
func writeOrchestratorErr(w http.ResponseWriter, err error) {
	if orchErr, ok := err.(*orchestrator.Error); ok {
		body := map[string]any{"error": orchErr.Code}
		for k, v := range orchErr.Detail {
			body[k] = v
		}
		writeJSON(w, orchErr.HTTPStatus, body)
		return
	}
	writeErr(w, http.StatusInternalServerError, "store_error")
}

func (h *Handlers) PostEvent(w http.ResponseWriter, r *http.Request) {
	var req postEventWireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	idempotencyKey := r.Header.Get("Idempotency-Key")

	start := h.now()
	result, err := h.Orchestrator.PostEvent(req.toDomain(idempotencyKey))
	if h.Metrics != nil {
		outcome := "posted"
		if err != nil {
			outcome = "rejected"
		} else if result.Replayed {
			outcome = "replayed"
		}
		h.Metrics.ObservePost(outcome, time.Since(start).Seconds())
	}
	if err != nil {
		writeOrchestratorErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) ReverseJournal(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeErr(w, http.StatusBadRequest, "invalid_journal_id")
		return
	}

	if err := h.Journals.Reverse(id); err != nil {
		switch err {
		case journal.ErrNotFound:
			writeErr(w, http.StatusNotFound, "journal_not_found")
		case journal.ErrAlreadyReversed:
			writeErr(w, http.StatusConflict, "journal_already_reversed")
		default:
			writeErr(w, http.StatusInternalServerError, "store_error")
		}
		return
	}

	_, _ = h.AuditSeals.Append("journal.reversed", nil, map[string]any{"journal_id": id}, h.now().UnixNano())
	writeJSON(w, http.StatusOK, map[string]any{"journal_id": id, "status": "REVERSED"})
}

func (h *Handlers) AdjustJournal(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeErr(w, http.StatusBadRequest, "invalid_journal_id")
		return
	}

	var req adjustJournalWireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	result, err := h.Orchestrator.AdjustJournal(req.toDomain(id))
	if err != nil {
		writeOrchestratorErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) LockPeriod(w http.ResponseWriter, r *http.Request) {
	periodID := mux.Vars(r)["period_id"]

	var req struct {
		TenantID      string `json:"tenant_id"`
		LegalEntityID string `json:"legal_entity_id"`
		LedgerBook    string `json:"ledger_book"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	if err := h.Periods.LockPeriod(req.TenantID, req.LegalEntityID, req.LedgerBook, periodID); err != nil {
		if err == period.ErrInvalidPeriodID {
			writeErr(w, http.StatusBadRequest, "invalid period id `"+periodID+"`")
			return
		}
		writeErr(w, http.StatusInternalServerError, "store_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"period_id": periodID, "status": "LOCKED"})
}

func (h *Handlers) UpsertLegalHold(w http.ResponseWriter, r *http.Request) {
	var req upsertLegalHoldWireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	rule, errCode := req.toDomain()
	if errCode != "" {
		writeErr(w, http.StatusBadRequest, errCode)
		return
	}

	if err := h.LegalHolds.Upsert(rule); err != nil {
		if err == legalhold.ErrInvalidRange {
			writeErr(w, http.StatusBadRequest, "invalid_legal_hold_range")
			return
		}
		writeErr(w, http.StatusInternalServerError, "store_error")
		return
	}
	_, _ = h.AuditSeals.Append("legal_hold.upserted", []string{rule.LegalEntityID}, map[string]any{
		"hold_id": rule.HoldID, "tenant_id": rule.TenantID, "ledger_book": rule.LedgerBook,
	}, h.now().UnixNano())
	writeJSON(w, http.StatusOK, map[string]any{"hold_id": rule.HoldID, "status": "ACTIVE"})
}

func (h *Handlers) VerifyAuditSeals(w http.ResponseWriter, r *http.Request) {
	if err := h.AuditSeals.VerifyChain(); err != nil {
		switch tampered := err.(type) {
		case *auditseal.TamperedError:
			writeJSON(w, http.StatusConflict, map[string]any{"error": "audit_seal_tampered", "sequence": tampered.Sequence})
		case *auditseal.ChainBrokenError:
			writeJSON(w, http.StatusConflict, map[string]any{"error": "audit_seal_chain_broken", "sequence": tampered.Sequence})
		default:
			writeErr(w, http.StatusInternalServerError, "store_error")
		}
		return
	}

	entries, err := h.AuditSeals.All()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "VERIFIED", "entries": entries})
}
