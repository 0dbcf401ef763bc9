package httpapi

import "net/http"

type sloResponse struct {
	AvailabilityTarget  string  `json:"availability_target"`
	ReadP95Ms           int     `json:"read_p95_ms"`
	WriteP95Ms          int     `json:"write_p95_ms"`
	ErrorRateMax        float64 `json:"error_rate_max"`
	NoBendEfficiencyMin float64 `json:"no_bend_efficiency_min"`
}

var fixedSLO = sloResponse{
	AvailabilityTarget:  "99.95%",
	ReadP95Ms:           150,
	WriteP95Ms:          250,
	ErrorRateMax:        0.001,
	NoBendEfficiencyMin: 0.80,
}

func (h *Handlers) OpsSLO(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fixedSLO)
}

func (h *Handlers) OpsCapacity(w http.ResponseWriter, r *http.Request) {
	if h.Capacity == nil {
		writeErr(w, http.StatusInternalServerError, "capacity_readiness_unavailable")
		return
	}
	report, ok := h.Capacity.Evaluate()
	if !ok {
		writeErr(w, http.StatusInternalServerError, "capacity_readiness_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
