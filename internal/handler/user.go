package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeCreateUser(w, r)
	if err != nil {
		return err
	}
	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeUser(e, u) })
	return nil
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.users.List(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range users {
			encodeUser(e, &users[i])
		}
		e.ArrEnd()
	})
	return nil
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
	return nil
}

func (h *Handler) updateUser(partial bool) apiFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, _ := pathID(r, "id")
		req, err := decodeUpdateUser(w, r, partial)
		if err != nil {
			return err
		}
		u, err := h.users.Update(r.Context(), id, req)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, u) })
		return nil
	}
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) error {
	id, _ := pathID(r, "id")
	if err := h.users.Delete(r.Context(), id); err != nil {
		return err
	}
	writeNoContent(w)
	return nil
}
