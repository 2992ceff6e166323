package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/xenking/storefront/internal/domain/auth"
)

const bearerPrefix = "Bearer "

// principal verifies the bearer token of r.
func (h *Handler) principal(r *http.Request) (auth.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Principal{}, errUnauthenticated
	}
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return h.tokens.Verify(strings.TrimSpace(header[len(bearerPrefix):]))
}

// authenticated requires a valid access token and stores the principal in
// the request context.
func (h *Handler) authenticated(fn apiFunc) apiFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		p, err := h.principal(r)
		if err != nil {
			return err
		}
		return fn(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	}
}

func (h *Handler) admin(fn apiFunc) apiFunc {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request) error {
		if p, _ := auth.FromContext(r.Context()); !p.Admin {
			return errForbidden
		}
		return fn(w, r)
	})
}

// owner allows the user named by the path variable param, and admins.
func (h *Handler) owner(param string, fn apiFunc) apiFunc {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r, param)
		if err != nil {
			return err
		}
		if p, _ := auth.FromContext(r.Context()); !p.CanAccess(id) {
			return errForbidden
		}
		return fn(w, r)
	})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, errNotFound
	}
	return id, nil
}
