package httpapi

import (
	"net/http"
	"time"

	"ledger-posting-engine/internal/recon"
)

type reconRunWireRequest struct {
	RunID          string         `json:"run_id"`
	RunStartedAt   time.Time      `json:"run_started_at"`
	Orders         []recon.Order  `json:"orders"`
	Payments       []recon.Payment `json:"payments"`
	Payouts        []recon.Payout `json:"payouts"`
	ToleranceMinor *int64         `json:"tolerance_minor,omitempty"`
}

func (h *Handlers) ReconRun(w http.ResponseWriter, r *http.Request) {
	var req reconRunWireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	tolerance := int64(-1)
	if req.ToleranceMinor != nil {
		tolerance = *req.ToleranceMinor
	}

	result := recon.ReconcileV1(recon.RunInput{
		RunID:          req.RunID,
		RunStartedAt:   req.RunStartedAt,
		Orders:         req.Orders,
		Payments:       req.Payments,
		Payouts:        req.Payouts,
		ToleranceMinor: tolerance,
	})

	if h.Metrics != nil {
		h.Metrics.ObserveReconRun(result.Metrics.AutoMatchRateBps, len(result.ExceptionQueue))
	}

	writeJSON(w, http.StatusOK, result)
}

type reconRouteExceptionWireRequest struct {
	Exception recon.Exception    `json:"exception"`
	Outcome   recon.MatchOutcome `json:"outcome"`
}

func (h *Handlers) ReconRouteException(w http.ResponseWriter, r *http.Request) {
	var req reconRouteExceptionWireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	if err := recon.ValidateException(req.Exception); err != nil {
		switch err {
		case recon.ErrMissingOwner:
			writeErr(w, http.StatusBadRequest, "missing_exception_owner")
		case recon.ErrMissingSeverity:
			writeErr(w, http.StatusBadRequest, "missing_exception_severity")
		default:
			writeErr(w, http.StatusBadRequest, "invalid_exception")
		}
		return
	}

	decision := recon.RouteException(req.Exception, req.Outcome)
	writeJSON(w, http.StatusOK, decision)
}
