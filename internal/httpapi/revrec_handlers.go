package httpapi

import (
	"net/http"

	"ledger-posting-engine/internal/revrec"
)

func (h *Handlers) RevRecRollforward(w http.ResponseWriter, r *http.Request) {
	book := r.URL.Query().Get("book")
	journals, err := h.Journals.All()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error")
		return
	}
	writeJSON(w, http.StatusOK, revrec.ComputeRollforward(journals, book))
}

func (h *Handlers) RevRecDisclosures(w http.ResponseWriter, r *http.Request) {
	book := r.URL.Query().Get("book")
	journals, err := h.Journals.All()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "store_error")
		return
	}
	writeJSON(w, http.StatusOK, revrec.ComputeDisclosure(journals, book))
}
