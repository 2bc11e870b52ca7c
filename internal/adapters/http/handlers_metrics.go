package http

import "net/http"

func (h *Handler) kpiSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.KPISnapshot(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "kpi_snapshot", err)
		return
	}
	writeSuccess(w, http.StatusOK, snap)
}
