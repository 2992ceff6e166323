package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/order"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	shipping, lines, err := decodeCreateOrder(w, r)
	if err != nil {
		return err
	}
	o, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		UserID:   userID,
		Shipping: shipping,
		Items:    lines,
	})
	if err != nil {
		h.metrics.CheckoutFailed(r.Context(), sourceItems, err)
		return err
	}
	h.metrics.OrderCreated(r.Context(), sourceItems, o)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeOrder(e, o) })
	return nil
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	shipping, err := decodeShipping(w, r)
	if err != nil {
		return err
	}
	o, err := h.orders.Checkout(r.Context(), userID, shipping)
	if err != nil {
		h.metrics.CheckoutFailed(r.Context(), sourceCart, err)
		return err
	}
	h.metrics.OrderCreated(r.Context(), sourceCart, o)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeOrder(e, o) })
	return nil
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	orders, err := h.orders.List(r.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			h.encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
	return nil
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	orderID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	o, err := h.orders.Get(r.Context(), userID, orderID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeOrder(e, o) })
	return nil
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) error {
	userID, _ := pathID(r, "user_pk")
	orderID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.orders.Cancel(r.Context(), userID, orderID); err != nil {
		return err
	}
	writeNoContent(w)
	return nil
}
