package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/validate"
)

const fieldRequired = "This field is required."

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeCart(e, c) })
	return nil
}

func (h *Handler) listCartItems(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	c, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeCartItems(e, c.Items) })
	return nil
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	in, err := decodeCartItem(w, r)
	if err != nil {
		return err
	}
	if in.ProductID == nil {
		return validate.Field("product_id", fieldRequired)
	}
	if in.Quantity == nil {
		return validate.Field("quantity", fieldRequired)
	}
	it, err := h.carts.AddItem(r.Context(), userID, *in.ProductID, *in.Quantity)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeCartItem(e, *it) })
	return nil
}

func (h *Handler) getCartItem(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	itemID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	it, err := h.carts.Item(r.Context(), userID, itemID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeCartItem(e, *it) })
	return nil
}

// updateCartItem changes the quantity of a line. The product of a line is
// fixed; a PATCH without quantity returns the line unchanged.
func (h *Handler) updateCartItem(partial bool) apiFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		userID, _ := pathID(r, "user_pk")
		itemID, err := pathID(r, "id")
		if err != nil {
			return err
		}
		in, err := decodeCartItem(w, r)
		if err != nil {
			return err
		}
		if in.Quantity == nil {
			if !partial {
				return validate.Field("quantity", fieldRequired)
			}
			return h.getCartItem(w, r)
		}
		it, err := h.carts.UpdateItem(r.Context(), userID, itemID, *in.Quantity)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeCartItem(e, *it) })
		return nil
	}
}

func (h *Handler) deleteCartItem(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	itemID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.carts.RemoveItem(r.Context(), userID, itemID); err != nil {
		return err
	}
	writeNoContent(w)
	return nil
}
