package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nkashyap/storefront/internal/admin"
	"github.com/nkashyap/storefront/internal/auth"
	"github.com/nkashyap/storefront/internal/cart"
	"github.com/nkashyap/storefront/internal/checkout"
	"github.com/nkashyap/storefront/internal/db"
	"github.com/nkashyap/storefront/internal/fanout"
	"github.com/nkashyap/storefront/internal/ledger"
	"github.com/nkashyap/storefront/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeCatalog stands in for the cached product repository across the
// catalog, cart, checkout, and admin surfaces.
type fakeCatalog struct {
	mu       sync.Mutex
	nextID   int
	products map[int]models.Product
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	f := &fakeCatalog{products: make(map[int]models.Product)}
	for _, p := range products {
		f.products[p.ID] = p
		if p.ID >= f.nextID {
			f.nextID = p.ID + 1
		}
	}
	return f
}

func (f *fakeCatalog) GetAll(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetByID(ctx context.Context, id int) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Product{
		ID:           f.nextID,
		Name:         req.Name,
		Category:     req.Category,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
		Images:       req.Images,
		CreatedAt:    time.Now().UTC(),
	}
	f.nextID++
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeCatalog) Update(ctx context.Context, id int, req models.UpdateProductRequest) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	p.Name = req.Name
	p.Category = req.Category
	p.CostPrice = req.CostPrice
	p.SellingPrice = req.SellingPrice
	p.Images = req.Images
	f.products[id] = p
	return &p, nil
}

func (f *fakeCatalog) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return db.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeCatalog) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products), nil
}

// fakeOrderRepo covers the writer, reader, and staff surfaces of the
// order repository.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrderRepo) GetByUser(ctx context.Context, userID int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetAll(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (f *fakeOrderRepo) Stats(ctx context.Context) (*db.OrderStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &db.OrderStats{TotalOrders: len(f.orders)}
	for _, o := range f.orders {
		switch o.Status {
		case models.OrderStatusPending:
			stats.PendingOrders++
		case models.OrderStatusCompleted:
			stats.Revenue += o.Total
		}
	}
	return stats, nil
}

func (f *fakeOrderRepo) RevenueByMonth(ctx context.Context, months int) ([]db.MonthRevenue, error) {
	return []db.MonthRevenue{}, nil
}

type fakeUserRepo struct {
	users map[int]models.User
}

func (f *fakeUserRepo) GetAll(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id int, role string) error {
	u, ok := f.users[id]
	if !ok {
		return db.ErrUserNotFound
	}
	u.Role = role
	f.users[id] = u
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.users[id]; !ok {
		return db.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int, error) {
	return len(f.users), nil
}

type harness struct {
	router        *gin.Engine
	ledger        *ledger.MemoryLedger
	orders        *fakeOrderRepo
	customerToken string
	adminToken    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()

	hub := fanout.NewHub(8, logger)
	ldg := ledger.NewMemoryLedger(hub)
	ldg.Seed(1, 5)
	ldg.Seed(2, 10)

	catalog := newFakeCatalog(
		models.Product{ID: 1, Name: "Leather Wallet", Category: "accessories", SellingPrice: 100, Stock: 5},
		models.Product{ID: 2, Name: "Water Bottle", Category: "kitchen", SellingPrice: 50, Stock: 10},
	)
	orders := newFakeOrderRepo()
	users := &fakeUserRepo{users: map[int]models.User{
		1: {ID: 1, Name: "Ravi", Role: models.RoleCustomer},
		2: {ID: 2, Name: "Asha", Role: models.RoleAdmin},
	}}

	carts := cart.NewService(cart.NewMemoryStore(), ldg, catalog, logger)
	compiler := checkout.NewCompiler(carts, ldg, catalog, orders, hub, 0.18, logger)
	reconciler := admin.NewReconciler(ldg, orders, users, catalog, logger)

	manager := auth.NewManager("test-secret")
	customerToken, err := manager.GenerateToken(1, models.RoleCustomer, time.Hour)
	require.NoError(t, err)
	adminToken, err := manager.GenerateToken(2, models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Products:   catalog,
		Carts:      carts,
		Compiler:   compiler,
		Orders:     orders,
		Reconciler: reconciler,
		Hub:        hub,
		Auth:       manager,
	})

	return &harness{
		router:        router,
		ledger:        ldg,
		orders:        orders,
		customerToken: customerToken,
		adminToken:    adminToken,
	}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	decode(t, rec, &body)
	kind, _ := body["error_kind"].(string)
	return kind
}

func validShipping() map[string]any {
	return map[string]any{
		"name":    "Ravi Kumar",
		"email":   "ravi@example.com",
		"phone":   "9876543210",
		"address": "12 MG Road",
		"city":    "Bengaluru",
		"pincode": "560001",
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuth_MissingToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, KindAuthenticationRequired, errorKind(t, rec))
}

func TestAuth_BadToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/cart", "not-a-real-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, KindAuthenticationRequired, errorKind(t, rec))
}

func TestAuth_CustomerBlockedFromStaffRoutes(t *testing.T) {
	h := newHarness(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodGet, "/api/admin/orders"},
		{http.MethodGet, "/api/admin/users"},
	} {
		rec := h.do(t, route.method, route.path, h.customerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestProducts_PublicListing(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var products []models.Product
	decode(t, rec, &products)
	assert.Len(t, products, 2)
}

func TestProducts_GetUnknown(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/products/99", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, KindNotFound, errorKind(t, rec))
}

func TestCart_AddInvalidQuantity(t *testing.T) {
	h := newHarness(t)

	for _, qty := range []int{0, -1} {
		rec := h.do(t, http.MethodPost, "/api/cart", h.customerToken,
			map[string]any{"product_id": 1, "quantity": qty})
		require.Equal(t, http.StatusBadRequest, rec.Code, "qty %d", qty)
		assert.Equal(t, KindInvalidQuantity, errorKind(t, rec), "qty %d", qty)
	}
}

func TestCart_AddExceedsStock(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/cart", h.customerToken,
		map[string]any{"product_id": 1, "quantity": 6})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, KindQuantityExceedsStock, errorKind(t, rec))
}

func TestCheckout_ShippingValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/cart", h.customerToken,
		map[string]any{"product_id": 1, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	shipping := validShipping()
	shipping["phone"] = "12345"
	rec = h.do(t, http.MethodPost, "/api/orders", h.customerToken, shipping)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		ErrorKind string            `json:"error_kind"`
		Fields    map[string]string `json:"fields"`
	}
	decode(t, rec, &body)
	assert.Equal(t, KindValidationFailed, body.ErrorKind)
	assert.Contains(t, body.Fields, "Phone")
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/orders", h.customerToken, validShipping())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindEmptyCart, errorKind(t, rec))
}

func TestCheckout_FullFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec := h.do(t, http.MethodPost, "/api/cart", h.customerToken,
		map[string]any{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	var cartBody models.Cart
	decode(t, rec, &cartBody)
	require.Len(t, cartBody.Items, 1)
	assert.Equal(t, 2, cartBody.TotalQuantity)
	assert.Equal(t, 200.0, cartBody.Subtotal)

	rec = h.do(t, http.MethodPost, "/api/orders", h.customerToken, validShipping())
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	decode(t, rec, &order)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 200.0, order.Subtotal)
	assert.InDelta(t, 36.0, order.Tax, 1e-9)
	assert.InDelta(t, 236.0, order.Total, 1e-9)

	stock, err := h.ledger.GetStock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stock)

	rec = h.do(t, http.MethodGet, "/api/cart", h.customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &cartBody)
	assert.Empty(t, cartBody.Items)

	rec = h.do(t, http.MethodGet, "/api/orders", h.customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.Order
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)
}

func TestAdmin_Restock(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPatch, "/api/admin/products/1/restock", h.adminToken,
		map[string]any{"quantity": 7})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ProductID int `json:"product_id"`
		Stock     int `json:"stock"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 1, body.ProductID)
	assert.Equal(t, 12, body.Stock)
}

func TestAdmin_RestockRejectsZero(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPatch, "/api/admin/products/1/restock", h.adminToken,
		map[string]any{"quantity": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindInvalidQuantity, errorKind(t, rec))
}

func TestAdmin_OrderStatusTransition(t *testing.T) {
	h := newHarness(t)

	// Customer checks out, staff completes the order.
	rec := h.do(t, http.MethodPost, "/api/cart", h.customerToken,
		map[string]any{"product_id": 2, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(t, http.MethodPost, "/api/orders", h.customerToken, validShipping())
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	decode(t, rec, &order)

	path := fmt.Sprintf("/api/orders/%s", order.ID)
	rec = h.do(t, http.MethodPatch, path, h.adminToken,
		map[string]any{"status": models.OrderStatusCompleted})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Order
	decode(t, rec, &updated)
	assert.Equal(t, models.OrderStatusCompleted, updated.Status)

	// Terminal states are final.
	rec = h.do(t, http.MethodPatch, path, h.adminToken,
		map[string]any{"status": models.OrderStatusCancelled})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, KindInvalidTransition, errorKind(t, rec))
}

func TestAdmin_ChangeUserRoleValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPatch, "/api/admin/users/1/role", h.adminToken,
		map[string]any{"role": "superuser"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindValidationFailed, errorKind(t, rec))

	rec = h.do(t, http.MethodPatch, "/api/admin/users/1/role", h.adminToken,
		map[string]any{"role": models.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_Stats(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/admin/stats", h.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats admin.DashboardStats
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.Products)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 0, stats.TotalOrders)
}
