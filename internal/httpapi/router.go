package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router wires every endpoint in the HTTP surface onto a gorilla/mux router,
// wrapped in the same concurrency-limiting middleware the teacher uses at
// the edge of its bare ServeMux.
func Router(h *Handlers, maxInflight int) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	r.HandleFunc("/v1/posting/events", h.PostEvent).Methods(http.MethodPost)
	r.HandleFunc("/v1/ledger/journals/{id}/reverse", h.ReverseJournal).Methods(http.MethodPost)
	r.HandleFunc("/v1/ledger/journals/{id}/adjust", h.AdjustJournal).Methods(http.MethodPost)
	r.HandleFunc("/v1/ledger/periods/{period_id}/lock", h.LockPeriod).Methods(http.MethodPost)

	r.HandleFunc("/v1/compliance/legal-holds", h.UpsertLegalHold).Methods(http.MethodPost)
	r.HandleFunc("/v1/compliance/audit-seals/verify", h.VerifyAuditSeals).Methods(http.MethodGet)

	r.HandleFunc("/v1/revrec/rollforward", h.RevRecRollforward).Methods(http.MethodGet)
	r.HandleFunc("/v1/revrec/disclosures", h.RevRecDisclosures).Methods(http.MethodGet)

	r.HandleFunc("/v1/ops/slo", h.OpsSLO).Methods(http.MethodGet)
	r.HandleFunc("/v1/ops/capacity", h.OpsCapacity).Methods(http.MethodGet)

	r.HandleFunc("/v1/recon/runs", h.ReconRun).Methods(http.MethodPost)
	r.HandleFunc("/v1/recon/exceptions/route", h.ReconRouteException).Methods(http.MethodPost)

	r.HandleFunc("/v1/close/checklists/{id}/dependencies/{dep_id}/transition", h.TransitionChecklistDependency).Methods(http.MethodPost)
	r.HandleFunc("/v1/close/dry-run", h.CloseDryRun).Methods(http.MethodPost)

	r.HandleFunc("/v1/ingest/settlements/stripe", h.IngestStripeSettlements).Methods(http.MethodPost)
	r.HandleFunc("/v1/ingest/settlements/bank", h.IngestBankStatements).Methods(http.MethodPost)

	return withConcurrencyLimit(r, maxInflight)
}

// withConcurrencyLimit bounds the number of requests served concurrently,
// fast-failing instead of queueing forever once the store's write path is
// saturated.
func withConcurrencyLimit(next http.Handler, max int) http.Handler {
	if max <= 0 {
		max = 64
	}
	sem := make(chan struct{}, max)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		default:
			writeErr(w, http.StatusServiceUnavailable, "server_busy")
		}
	})
}
