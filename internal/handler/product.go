package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/gorilla/mux"

	"github.com/xenking/storefront/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) error {
	return h.writeProductList(w, r, product.ListFilter{})
}

func (h *Handler) listFeatured(w http.ResponseWriter, r *http.Request) error {
	return h.writeProductList(w, r, product.ListFilter{Featured: true})
}

func (h *Handler) listNew(w http.ResponseWriter, r *http.Request) error {
	return h.writeProductList(w, r, product.ListFilter{New: true})
}

func (h *Handler) writeProductList(w http.ResponseWriter, r *http.Request, filter product.ListFilter) error {
	if raw := r.URL.Query().Get("category"); raw != "" {
		if c, ok := product.ParseCategory(raw); ok {
			filter.Category = c
		}
	}
	ps, err := h.products.List(r.Context(), filter)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, ps) })
	return nil
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) error {
	p, err := h.products.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProduct(e, *p) })
	return nil
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	p, err := h.products.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		return err
	}
	if err := h.productWriter.Delete(r.Context(), p.ID); err != nil {
		return err
	}
	writeNoContent(w)
	return nil
}
