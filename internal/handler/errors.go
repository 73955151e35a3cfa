package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pizza-shop/internal/domain/catalog"
	"github.com/xenking/pizza-shop/internal/domain/order"
)

// writeJSON encodes one JSON value built by fn and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes a {code, message} error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// writeDomainError maps a domain error onto an HTTP response. Validation
// errors become user-correctable 4xx responses; anything else is logged and
// reported as a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ueErr *catalog.UnknownEntryError
		iqErr *order.InvalidQuantityError
		ciErr *order.InvalidCustomerInfoError
	)
	switch {
	case errors.As(err, &ueErr):
		writeError(w, http.StatusUnprocessableEntity, ueErr.Error())
	case errors.As(err, &iqErr):
		writeError(w, http.StatusUnprocessableEntity, iqErr.Error())
	case errors.Is(err, order.ErrEmptyOrder):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &ciErr):
		writeError(w, http.StatusUnprocessableEntity, ciErr.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
