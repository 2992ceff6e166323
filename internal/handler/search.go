package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/search"
)

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	ps, err := h.search.Search(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, ps) })
	return nil
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) error {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return &search.BadRequestError{Reason: "Missing id parameter."}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return &search.BadRequestError{Reason: "Invalid id parameter."}
	}
	ps, err := h.search.Recommendations(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, ps) })
	return nil
}
