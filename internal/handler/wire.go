package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/user"
	"github.com/xenking/storefront/internal/domain/validate"
)

const maxBodySize = 1 << 20

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// readObject decodes the JSON object body of r, calling fn for every key.
// An empty body is treated as an empty object.
func readObject(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return &validate.Error{Message: "Request body is too large or unreadable."}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return &validate.Error{Message: "Expected a JSON object."}
	}
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return fn(d, string(key))
	}); err != nil {
		var vErr *validate.Error
		if errors.As(err, &vErr) {
			return vErr
		}
		return &validate.Error{Message: "JSON parse error."}
	}
	return nil
}

func decodeString(d *jx.Decoder, field string) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Null:
		return "", d.Null()
	default:
		return "", validate.Field(field, "Not a valid string.")
	}
}

// decodeInt accepts a JSON number or a numeric string.
func decodeInt(d *jx.Decoder, field string) (int64, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Int64()
		if err != nil {
			return 0, validate.Field(field, "A valid integer is required.")
		}
		return n, nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, validate.Field(field, "A valid integer is required.")
		}
		return n, nil
	default:
		return 0, validate.Field(field, "A valid integer is required.")
	}
}

func decodeShippingField(d *jx.Decoder, key string, s *order.Shipping) (bool, error) {
	var dst *string
	switch key {
	case "first_name":
		dst = &s.FirstName
	case "last_name":
		dst = &s.LastName
	case "address1":
		dst = &s.Address1
	case "address2":
		dst = &s.Address2
	case "city":
		dst = &s.City
	case "region":
		dst = &s.Region
	case "zip":
		dst = &s.Zip
	case "country":
		dst = &s.Country
	default:
		return false, nil
	}
	v, err := decodeString(d, key)
	if err != nil {
		return true, err
	}
	*dst = v
	return true, nil
}

func decodeShipping(w http.ResponseWriter, r *http.Request) (order.Shipping, error) {
	var s order.Shipping
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		ok, err := decodeShippingField(d, key, &s)
		if !ok {
			return d.Skip()
		}
		return err
	})
	return s, err
}

func decodeCreateOrder(w http.ResponseWriter, r *http.Request) (order.Shipping, []order.Line, error) {
	var (
		s     order.Shipping
		lines []order.Line
	)
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		if key == "items" {
			if d.Next() == jx.Null {
				return d.Null()
			}
			if d.Next() != jx.Array {
				return validate.Field("items", "Expected a list of items.")
			}
			return d.Arr(func(d *jx.Decoder) error {
				line, err := decodeLine(d)
				if err != nil {
					return err
				}
				lines = append(lines, line)
				return nil
			})
		}
		ok, err := decodeShippingField(d, key, &s)
		if !ok {
			return d.Skip()
		}
		return err
	})
	return s, lines, err
}

func decodeLine(d *jx.Decoder) (order.Line, error) {
	var line order.Line
	var hasProduct, hasQuantity bool
	if d.Next() != jx.Object {
		return line, validate.Field("items", "Expected an object.")
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			id, err := decodeInt(d, "product_id")
			line.ProductID, hasProduct = id, true
			return err
		case "quantity":
			q, err := decodeInt(d, "quantity")
			line.Quantity, hasQuantity = int(q), true
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return line, err
	}
	if !hasProduct {
		return line, validate.Field("product_id", "This field is required.")
	}
	if !hasQuantity {
		return line, validate.Field("quantity", "This field is required.")
	}
	return line, nil
}

type cartItemInput struct {
	ProductID *int64
	Quantity  *int
}

func decodeCartItem(w http.ResponseWriter, r *http.Request) (cartItemInput, error) {
	var in cartItemInput
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			id, err := decodeInt(d, key)
			in.ProductID = &id
			return err
		case "quantity":
			q, err := decodeInt(d, key)
			qty := int(q)
			in.Quantity = &qty
			return err
		default:
			return d.Skip()
		}
	})
	return in, err
}

func decodeCreateUser(w http.ResponseWriter, r *http.Request) (user.CreateRequest, error) {
	var req user.CreateRequest
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "first_name":
			dst = &req.FirstName
		case "last_name":
			dst = &req.LastName
		case "email":
			dst = &req.Email
		case "password":
			dst = &req.Password
		case "password_confirmation":
			dst = &req.PasswordConfirmation
		default:
			return d.Skip()
		}
		v, err := decodeString(d, key)
		*dst = v
		return err
	})
	return req, err
}

func decodeUpdateUser(w http.ResponseWriter, r *http.Request, partial bool) (user.UpdateRequest, error) {
	req := user.UpdateRequest{Partial: partial}
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		var dst **string
		switch key {
		case "first_name":
			dst = &req.FirstName
		case "last_name":
			dst = &req.LastName
		case "email":
			dst = &req.Email
		case "new_password":
			dst = &req.NewPassword
		case "password":
			v, err := decodeString(d, key)
			req.Password = v
			return err
		default:
			return d.Skip()
		}
		v, err := decodeString(d, key)
		*dst = &v
		return err
	})
	return req, err
}

// decodeStrings reads the string fields named in keys from a JSON object.
func decodeStrings(w http.ResponseWriter, r *http.Request, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		for _, k := range keys {
			if k == key {
				v, err := decodeString(d, key)
				out[key] = v
				return err
			}
		}
		return d.Skip()
	})
	return out, err
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Str(d.StringFixed(2))
}

func (h *Handler) imageURL(key string) string {
	if key == "" {
		return ""
	}
	return h.imageBaseURL + key
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("slug")
	e.Str(p.Slug)
	e.FieldStart("price")
	encodeMoney(e, p.Price)
	e.FieldStart("list_price")
	encodeMoney(e, p.ListPrice)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Int(int(p.Category))
	e.FieldStart("category_name")
	e.Str(p.Category.String())
	e.FieldStart("featured")
	e.Bool(p.Featured)
	e.FieldStart("new")
	e.Bool(p.New)
	e.FieldStart("on_sale")
	e.Bool(p.OnSale)
	e.FieldStart("thumbnail")
	e.Str(h.imageURL(p.Images.Thumbnail))
	e.FieldStart("medium")
	e.Str(h.imageURL(p.Images.Medium))
	e.FieldStart("large")
	e.Str(h.imageURL(p.Images.Large))
	e.ObjEnd()
}

func (h *Handler) encodeProducts(e *jx.Encoder, ps []product.Product) {
	e.ArrStart()
	for _, p := range ps {
		h.encodeProduct(e, p)
	}
	e.ArrEnd()
}

func (h *Handler) encodeCartItem(e *jx.Encoder, it cart.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(it.ID)
	e.FieldStart("product")
	h.encodeProduct(e, it.Product)
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("subtotal")
	encodeMoney(e, it.Subtotal())
	e.ObjEnd()
}

func (h *Handler) encodeCartItems(e *jx.Encoder, items []cart.Item) {
	e.ArrStart()
	for _, it := range items {
		h.encodeCartItem(e, it)
	}
	e.ArrEnd()
}

func (h *Handler) encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(c.ID)
	e.FieldStart("user")
	e.Int64(c.UserID)
	e.FieldStart("items")
	h.encodeCartItems(e, c.Items)
	e.FieldStart("total")
	encodeMoney(e, c.Total)
	e.ObjEnd()
}

func encodeShipping(e *jx.Encoder, s order.Shipping) {
	for _, f := range []struct{ name, value string }{
		{"first_name", s.FirstName},
		{"last_name", s.LastName},
		{"address1", s.Address1},
		{"address2", s.Address2},
		{"city", s.City},
		{"region", s.Region},
		{"zip", s.Zip},
		{"country", s.Country},
	} {
		e.FieldStart(f.name)
		e.Str(f.value)
	}
}

func (h *Handler) encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("user")
	if o.UserID != nil {
		e.Int64(*o.UserID)
	} else {
		e.Null()
	}
	e.FieldStart("order_date")
	e.Str(o.OrderDate.UTC().Format(timeLayout))
	e.FieldStart("total")
	encodeMoney(e, o.Total)
	encodeShipping(e, o.Shipping)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(it.ID)
		e.FieldStart("product")
		h.encodeProduct(e, it.Product)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("unit_price")
		encodeMoney(e, it.UnitPrice)
		e.FieldStart("subtotal")
		encodeMoney(e, it.Subtotal())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeUser(e *jx.Encoder, u *user.User) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(u.ID)
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("first_name")
	e.Str(u.FirstName)
	e.FieldStart("last_name")
	e.Str(u.LastName)
	e.FieldStart("is_active")
	e.Bool(u.Active)
	e.FieldStart("is_staff")
	e.Bool(u.Staff)
	e.FieldStart("is_superuser")
	e.Bool(u.Admin)
	e.ObjEnd()
}
