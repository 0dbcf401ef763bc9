package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ledger-posting-engine/internal/closecheck"
)

type transitionDependencyWireRequest struct {
	NextStatus closecheck.DependencyStatus `json:"next_status"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

func (h *Handlers) TransitionChecklistDependency(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	checklistID, depID := vars["id"], vars["dep_id"]

	if h.Checklists == nil {
		writeErr(w, http.StatusInternalServerError, "checklist_registry_unavailable")
		return
	}
	checklist, ok := h.Checklists.Get(checklistID)
	if !ok {
		writeErr(w, http.StatusNotFound, "checklist_not_found")
		return
	}

	var req transitionDependencyWireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	updatedAt := req.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = h.now()
	}

	updated, err := closecheck.TransitionDependencyStatus(checklist, depID, req.NextStatus, updatedAt)
	if err != nil {
		if closeErr, ok := err.(*closecheck.Error); ok {
			switch closeErr.Kind {
			case "dependency_not_found":
				writeErr(w, http.StatusNotFound, "dependency_not_found")
			case "invalid_dependency_transition":
				writeErr(w, http.StatusBadRequest, "invalid_dependency_transition")
			default:
				writeErr(w, http.StatusBadRequest, "invalid_checklist_transition")
			}
			return
		}
		writeErr(w, http.StatusInternalServerError, "store_error")
		return
	}

	h.Checklists.Put(updated)
	writeJSON(w, http.StatusOK, closecheck.EvaluateEntityChecklist(updated))
}

type closeDryRunWireRequest struct {
	RunID        string                       `json:"run_id"`
	RunStartedAt time.Time                    `json:"run_started_at"`
	ChecklistIDs []string                     `json:"checklist_ids"`
	Checklists   []closecheck.EntityChecklist `json:"checklists,omitempty"`
}

func (h *Handlers) CloseDryRun(w http.ResponseWriter, r *http.Request) {
	var req closeDryRunWireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_payload")
		return
	}

	checklists := req.Checklists
	if len(checklists) == 0 {
		if h.Checklists == nil {
			writeErr(w, http.StatusInternalServerError, "checklist_registry_unavailable")
			return
		}
		for _, id := range req.ChecklistIDs {
			c, ok := h.Checklists.Get(id)
			if !ok {
				writeErr(w, http.StatusNotFound, "checklist_not_found")
				return
			}
			checklists = append(checklists, c)
		}
	}

	result, err := closecheck.SimulateMultiEntityCloseDryRun(closecheck.MultiEntityDryRunInput{
		RunID:        req.RunID,
		RunStartedAt: req.RunStartedAt,
		Checklists:   checklists,
	})
	if err != nil {
		if closeErr, ok := err.(*closecheck.Error); ok && closeErr.Kind == "unsupported_entity_count" {
			writeErr(w, http.StatusBadRequest, "unsupported_entity_count")
			return
		}
		writeErr(w, http.StatusInternalServerError, "store_error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
