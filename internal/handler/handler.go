// Package handler exposes the ordering flow over HTTP: menu browsing,
// session-scoped order mutation, and order confirmation.
package handler

import (
	"net/http"

	"github.com/xenking/pizza-shop/internal/dispatch"
	"github.com/xenking/pizza-shop/internal/domain/catalog"
	"github.com/xenking/pizza-shop/internal/domain/order"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in menu responses.
	// When empty, image paths are returned as stored in the catalog.
	ImageBaseURL string
}

// Handler serves the ordering API. Business logic lives in the order domain;
// the handler maps HTTP requests onto it and domain errors back onto status
// codes.
type Handler struct {
	menu         *catalog.Catalog
	sessions     *Sessions
	finalizer    *order.Finalizer
	dispatcher   *dispatch.Dispatcher
	imageBaseURL string
}

// New constructs a Handler with the required dependencies.
func New(
	cfg Config,
	menu *catalog.Catalog,
	sessions *Sessions,
	finalizer *order.Finalizer,
	dispatcher *dispatch.Dispatcher,
) *Handler {
	return &Handler{
		menu:         menu,
		sessions:     sessions,
		finalizer:    finalizer,
		dispatcher:   dispatcher,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/menu", h.Menu)
	mux.HandleFunc("GET /api/order", h.CurrentOrder)
	mux.HandleFunc("PUT /api/order/items", h.SelectItem)
	mux.HandleFunc("DELETE /api/order/items", h.DeselectItem)
	mux.HandleFunc("POST /api/order/confirm", h.ConfirmOrder)
	return mux
}
