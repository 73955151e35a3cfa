package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pizza-shop/internal/domain/order"
)

// maxBodySize bounds request bodies; order mutations are tiny.
const maxBodySize = 1 << 16

type selectRequest struct {
	Item     string
	Size     string
	Quantity int
}

func decodeSelectRequest(r io.Reader) (selectRequest, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		return selectRequest{}, errors.Wrap(err, "read body")
	}

	var req selectRequest
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "item":
			req.Item, err = d.Str()
		case "size":
			req.Size, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return selectRequest{}, errors.Wrap(err, "parse body")
	}
	return req, nil
}

type confirmRequest struct {
	Name  string
	Email string
}

func decodeConfirmRequest(r io.Reader) (confirmRequest, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		return confirmRequest{}, errors.Wrap(err, "read body")
	}

	var req confirmRequest
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, err = d.Str()
		case "email":
			req.Email, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return confirmRequest{}, errors.Wrap(err, "parse body")
	}
	return req, nil
}

// orderSummary is a point-in-time copy of the builder state, taken under the
// session lock and encoded after it is released.
type orderSummary struct {
	groups []order.ItemGroup
	total  string
	empty  bool
}

func summarize(b *order.Builder) orderSummary {
	return orderSummary{
		groups: b.Groups(),
		total:  b.Total().StringFixed(2),
		empty:  b.IsEmpty(),
	}
}

func writeOrderSummary(w http.ResponseWriter, status int, s orderSummary) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, g := range s.groups {
						e.Obj(func(e *jx.Encoder) {
							e.Field("item", func(e *jx.Encoder) { e.Str(g.Item) })
							e.Field("lines", func(e *jx.Encoder) {
								e.Arr(func(e *jx.Encoder) {
									for _, line := range g.Lines {
										e.Str(line)
									}
								})
							})
							e.Field("subtotal", func(e *jx.Encoder) { e.Str(g.Subtotal.StringFixed(2)) })
						})
					}
				})
			})
			e.Field("total", func(e *jx.Encoder) { e.Str(s.total) })
			e.Field("empty", func(e *jx.Encoder) { e.Bool(s.empty) })
		})
	})
}

// CurrentOrder returns the session's in-progress order summary.
func (h *Handler) CurrentOrder(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	sess.mu.Lock()
	summary := summarize(sess.builder)
	sess.mu.Unlock()

	writeOrderSummary(w, http.StatusOK, summary)
}

// SelectItem inserts or updates one line item and returns the refreshed
// order summary.
func (h *Handler) SelectItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSelectRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Item == "" || req.Size == "" {
		writeError(w, http.StatusBadRequest, "item and size are required")
		return
	}

	sess := h.session(w, r)

	sess.mu.Lock()
	err = sess.builder.Select(req.Item, req.Size, req.Quantity)
	summary := summarize(sess.builder)
	sess.mu.Unlock()

	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOrderSummary(w, http.StatusOK, summary)
}

// DeselectItem removes one line item. Removing an absent item is not an
// error.
func (h *Handler) DeselectItem(w http.ResponseWriter, r *http.Request) {
	item := r.URL.Query().Get("item")
	size := r.URL.Query().Get("size")
	if item == "" || size == "" {
		writeError(w, http.StatusBadRequest, "item and size query parameters are required")
		return
	}

	sess := h.session(w, r)

	sess.mu.Lock()
	sess.builder.Deselect(item, size)
	summary := summarize(sess.builder)
	sess.mu.Unlock()

	writeOrderSummary(w, http.StatusOK, summary)
}

// ConfirmOrder finalizes the session's order and hands the record to the
// notification and persistence sinks. The response carries the order number
// immediately; sink outcomes are reported asynchronously and never fail the
// confirmation.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeConfirmRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := h.session(w, r)

	sess.mu.Lock()
	rec, err := h.finalizer.Finalize(r.Context(), sess.builder, req.Name, req.Email)
	sess.mu.Unlock()

	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// Fire-and-forget: the dispatcher logs each sink outcome; the buffered
	// channel can be dropped without leaking.
	_ = h.dispatcher.Dispatch(rec)

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("order_number", func(e *jx.Encoder) { e.Str(rec.Number) })
			e.Field("total", func(e *jx.Encoder) { e.Str(rec.Total.StringFixed(2)) })
			e.Field("created_at", func(e *jx.Encoder) { e.Str(rec.CreatedAt.Format(time.RFC3339)) })
		})
	})
}
