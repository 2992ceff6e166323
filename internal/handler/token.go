package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/validate"
)

func (h *Handler) obtainToken(w http.ResponseWriter, r *http.Request) error {
	in, err := decodeStrings(w, r, "email", "password")
	if err != nil {
		return err
	}
	for _, k := range []string{"email", "password"} {
		if in[k] == "" {
			return validate.Field(k, fieldRequired)
		}
	}
	u, err := h.users.Authenticate(r.Context(), in["email"], in["password"])
	if err != nil {
		return err
	}
	pair, err := h.tokens.Issue(auth.Principal{UserID: u.ID, Admin: u.Admin})
	if err != nil {
		return errors.Wrap(err, "issue tokens")
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("access")
		e.Str(pair.Access)
		e.FieldStart("refresh")
		e.Str(pair.Refresh)
		e.ObjEnd()
	})
	return nil
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) error {
	in, err := decodeStrings(w, r, "refresh")
	if err != nil {
		return err
	}
	if in["refresh"] == "" {
		return validate.Field("refresh", fieldRequired)
	}
	access, err := h.tokens.Refresh(in["refresh"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("access")
		e.Str(access)
		e.ObjEnd()
	})
	return nil
}
