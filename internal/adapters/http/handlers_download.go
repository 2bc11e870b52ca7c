package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/linktofunnel/storefront/internal/domain"
)

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeMappedError(r.Context(), w, "download", domain.ErrTokenInvalid)
		return
	}

	file, err := h.service.ResolveDownload(r.Context(), token, readIP(r))
	if err != nil {
		writeMappedError(r.Context(), w, "download", err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(file.FileName))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, file.Path)
}
