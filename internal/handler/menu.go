package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// Menu returns the full catalog: categories with their items, size variants
// and prices.
func (h *Handler) Menu(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("categories", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, c := range h.menu.Categories() {
						e.Obj(func(e *jx.Encoder) {
							e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
							e.Field("items", func(e *jx.Encoder) {
								e.Arr(func(e *jx.Encoder) {
									for _, item := range c.Items {
										e.Obj(func(e *jx.Encoder) {
											e.Field("name", func(e *jx.Encoder) { e.Str(item.Name) })
											if item.Image != "" {
												e.Field("image", func(e *jx.Encoder) {
													e.Str(h.imageBaseURL + item.Image)
												})
											}
											e.Field("sizes", func(e *jx.Encoder) {
												e.Arr(func(e *jx.Encoder) {
													for _, s := range item.Sizes {
														e.Obj(func(e *jx.Encoder) {
															e.Field("label", func(e *jx.Encoder) { e.Str(s.Label) })
															e.Field("price", func(e *jx.Encoder) { e.Str(s.Price.StringFixed(2)) })
														})
													}
												})
											})
										})
									}
								})
							})
						})
					}
				})
			})
		})
	})
}
