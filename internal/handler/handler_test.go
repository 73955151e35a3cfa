package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/pizza-shop/internal/dispatch"
	"github.com/xenking/pizza-shop/internal/domain/catalog"
	"github.com/xenking/pizza-shop/internal/domain/order"
)

type memStore struct {
	mu    sync.Mutex
	saved []*order.Record
}

func (s *memStore) Save(_ context.Context, rec *order.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, rec)
	return nil
}

type memNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *memNotifier) Send(_ context.Context, recipient string, _ *order.Record) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recipient)
	return nil
}

type fixture struct {
	handler    http.Handler
	store      *memStore
	notifier   *memNotifier
	dispatcher *dispatch.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	menu, err := catalog.Default()
	require.NoError(t, err)

	store := &memStore{}
	notifier := &memNotifier{}
	d := dispatch.New(store, notifier, time.Second, zaptest.NewLogger(t))

	h := New(
		Config{},
		menu,
		NewSessions(menu, time.Hour),
		order.NewFinalizer(order.NewMemorySequence(0)),
		d,
	)
	return &fixture{handler: h.Routes(), store: store, notifier: notifier, dispatcher: d}
}

func (f *fixture) do(t *testing.T, method, target, body, session string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

type summaryResponse struct {
	Items []struct {
		Item     string   `json:"item"`
		Lines    []string `json:"lines"`
		Subtotal string   `json:"subtotal"`
	} `json:"items"`
	Total string `json:"total"`
	Empty bool   `json:"empty"`
}

func decodeSummary(t *testing.T, rec *httptest.ResponseRecorder) summaryResponse {
	t.Helper()
	var s summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestMenu(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/menu", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Categories []struct {
			Name  string `json:"name"`
			Items []struct {
				Name  string `json:"name"`
				Image string `json:"image"`
				Sizes []struct {
					Label string `json:"label"`
					Price string `json:"price"`
				} `json:"sizes"`
			} `json:"items"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 3)
	assert.Equal(t, "Pizzas", resp.Categories[0].Name)
	assert.Equal(t, "Cheese Pizza", resp.Categories[0].Items[1].Name)
	assert.Equal(t, "6.50", resp.Categories[0].Items[1].Sizes[0].Price)
	assert.NotEmpty(t, resp.Categories[0].Items[1].Image)
}

func TestSelectItem(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Cheese Pizza","size":"Small","quantity":2}`, "s1")
	require.Equal(t, http.StatusOK, rec.Code)
	s := decodeSummary(t, rec)
	assert.Equal(t, "13.00", s.Total)
	assert.False(t, s.Empty)

	rec = f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Cheese Pizza","size":"Medium","quantity":1}`, "s1")
	require.Equal(t, http.StatusOK, rec.Code)
	s = decodeSummary(t, rec)
	assert.Equal(t, "22.25", s.Total)
	require.Len(t, s.Items, 1)
	assert.Equal(t, []string{"Small x 2: $13.00", "Medium x 1: $9.25"}, s.Items[0].Lines)
}

func TestSelectItem_Replaces(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Coke","size":"Small","quantity":1}`, "s1")
	rec := f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Coke","size":"Small","quantity":4}`, "s1")

	s := decodeSummary(t, rec)
	require.Len(t, s.Items, 1)
	require.Len(t, s.Items[0].Lines, 1)
	assert.Equal(t, "4.00", s.Total)
}

func TestSelectItem_Errors(t *testing.T) {
	f := newFixture(t)

	t.Run("unknown entry", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/order/items",
			`{"item":"Calzone","size":"Small","quantity":1}`, "s1")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "Calzone")
	})

	t.Run("invalid quantity", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/order/items",
			`{"item":"Cheese Pizza","size":"Small","quantity":0}`, "s1")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "quantity")
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/order/items", `{"quantity":1}`, "s1")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/order/items", `{nope`, "s1")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	// Failed selections left the order untouched.
	rec := f.do(t, http.MethodGet, "/api/order", "", "s1")
	assert.True(t, decodeSummary(t, rec).Empty)
}

func TestDeselectItem(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Coke","size":"Small","quantity":1}`, "s1")

	rec := f.do(t, http.MethodDelete, "/api/order/items?item=Coke&size=Small", "", "s1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeSummary(t, rec).Empty)

	// Absent item is a no-op, not an error.
	rec = f.do(t, http.MethodDelete, "/api/order/items?item=Coke&size=Small", "", "s1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/order/items?item=Coke", "", "s1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmOrder(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Cheese Pizza","size":"Small","quantity":2}`, "s1")
	f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Cheese Pizza","size":"Medium","quantity":1}`, "s1")

	rec := f.do(t, http.MethodPost, "/api/order/confirm",
		`{"name":"Ana","email":"ana@x.com"}`, "s1")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		OrderNumber string `json:"order_number"`
		Total       string `json:"total"`
		CreatedAt   string `json:"created_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PS-000001", resp.OrderNumber)
	assert.Equal(t, "22.25", resp.Total)
	assert.NotEmpty(t, resp.CreatedAt)

	// The session's builder is reset for the next order.
	s := decodeSummary(t, f.do(t, http.MethodGet, "/api/order", "", "s1"))
	assert.True(t, s.Empty)

	// Both sinks received the record.
	f.dispatcher.Wait()
	require.Len(t, f.store.saved, 1)
	assert.Equal(t, "PS-000001", f.store.saved[0].Number)
	assert.Equal(t, []string{"ana@x.com"}, f.notifier.sent)
}

func TestConfirmOrder_Errors(t *testing.T) {
	f := newFixture(t)

	t.Run("empty order", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/order/confirm",
			`{"name":"Ana","email":"ana@x.com"}`, "empty-session")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing customer info", func(t *testing.T) {
		f.do(t, http.MethodPut, "/api/order/items",
			`{"item":"Coke","size":"Small","quantity":1}`, "s2")
		rec := f.do(t, http.MethodPost, "/api/order/confirm",
			`{"name":"","email":"ana@x.com"}`, "s2")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "name")

		// Rejected confirmation keeps the order intact.
		s := decodeSummary(t, f.do(t, http.MethodGet, "/api/order", "", "s2"))
		assert.False(t, s.Empty)
	})

	// No number was allocated by the failed attempts.
	f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Coke","size":"Small","quantity":1}`, "s3")
	rec := f.do(t, http.MethodPost, "/api/order/confirm",
		`{"name":"Ben","email":"ben@x.com"}`, "s3")
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		OrderNumber string `json:"order_number"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PS-000001", resp.OrderNumber)
}

func TestSessionsAreIndependent(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Coke","size":"Small","quantity":1}`, "alice")
	f.do(t, http.MethodPut, "/api/order/items",
		`{"item":"Sprite","size":"Large","quantity":2}`, "bob")

	alice := decodeSummary(t, f.do(t, http.MethodGet, "/api/order", "", "alice"))
	bob := decodeSummary(t, f.do(t, http.MethodGet, "/api/order", "", "bob"))

	assert.Equal(t, "1.00", alice.Total)
	assert.Equal(t, "6.00", bob.Total)
}

func TestNewSessionGetsCookie(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/order", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}
