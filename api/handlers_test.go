package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokocicil/collection-engine/account"
	"github.com/tokocicil/collection-engine/api"
	"github.com/tokocicil/collection-engine/catalog"
	"github.com/tokocicil/collection-engine/holiday"
	"github.com/tokocicil/collection-engine/ledger"
	"github.com/tokocicil/collection-engine/store/memory"
)

var testSecret = []byte("test-secret")

// =============================================================================
// TEST FIXTURE
// =============================================================================

type fixture struct {
	handler *api.Handler
	router  http.Handler
	orders  *memory.OrderStore
	users   *memory.UserStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := memory.NewOrderStore()
	users := memory.NewUserStore()
	h := api.NewHandler(api.Deps{
		Orders:     orders,
		Products:   memory.NewProductStore(),
		Users:      users,
		Broadcasts: memory.NewBroadcastStore(),
		Promos:     memory.NewPromoStore(),
		Holidays:   holiday.None{},
	})
	h.Now = func() time.Time {
		return time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)
	}
	h.Ledger.Now = h.Now
	return &fixture{handler: h, router: api.NewRouter(h, testSecret), orders: orders, users: users}
}

func (f *fixture) seedUser(t *testing.T, u account.User) account.User {
	t.Helper()
	require.NoError(t, f.users.Save(context.Background(), &u))
	return u
}

func (f *fixture) seedProduct(t *testing.T, p catalog.Product) catalog.Product {
	t.Helper()
	require.NoError(t, f.handler.Products.Create(context.Background(), &p))
	return p
}

func token(t *testing.T, u account.User) string {
	t.Helper()
	tok, err := api.SignToken(testSecret, api.Identity{
		UID: u.ID, Name: u.NamaLengkap, Email: u.Email, Role: u.Role,
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

// do runs one request through the router and decodes the JSON response.
func (f *fixture) do(t *testing.T, method, path, bearer string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

var (
	ratna = account.User{ID: "user-ratna", Email: "ratna@example.com", Role: account.RoleConsumer,
		NamaLengkap: "Ratna Sari", JenisUsaha: "Warung", NomorKtp: "3201019999990001"}
	budi  = account.User{ID: "kol-budi", Email: "budi@example.com", Role: account.RoleCollector, NamaLengkap: "Budi"}
	admin = account.User{ID: "adm-1", Email: "admin@example.com", Role: account.RoleAdmin, NamaLengkap: "Admin"}

	kompor = catalog.Product{ID: "prod-kompor", Name: "Kompor Gas", HargaModal: 1_000_000, DP: 100_000}
)

// checkoutOrder drives a full consumer checkout through the API and
// returns the created order DTO.
func (f *fixture) checkoutOrder(t *testing.T, freq string) api.OrderDTO {
	t.Helper()
	f.seedUser(t, ratna)
	f.seedProduct(t, kompor)

	var dto api.OrderDTO
	rec := f.do(t, http.MethodPost, "/api/orders", token(t, ratna), api.CheckoutRequest{
		ProductID:        kompor.ID,
		Tenor:            60,
		PaymentFrequency: freq,
		ShippingAddress:  "Jl. Melati 1",
	}, &dto)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return dto
}

// deliver walks an order to Terkirim and assigns Budi, as an admin would.
func (f *fixture) deliver(t *testing.T, orderID string) {
	t.Helper()
	f.seedUser(t, budi)
	adm := f.seedUser(t, admin)
	for _, status := range []ledger.Status{ledger.StatusShipping, ledger.StatusDelivered} {
		rec := f.do(t, http.MethodPut, "/api/orders/"+orderID+"/status", token(t, adm),
			api.StatusRequest{Status: string(status)}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := f.do(t, http.MethodPut, "/api/orders/"+orderID+"/collector", token(t, adm),
		api.AssignCollectorRequest{CollectorUID: budi.ID}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// =============================================================================
// AUTH
// =============================================================================

func TestAuth_MissingTokenRejected(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/orders", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_BadTokenRejected(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/orders", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_HealthIsPublic(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_AnonymousConsumer(t *testing.T) {
	f := newFixture(t)
	var u account.User
	rec := f.do(t, http.MethodPost, "/api/users/register", "", api.RegisterRequest{
		Email: "new@example.com", NamaLengkap: "Baru",
	}, &u)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, account.RoleConsumer, u.Role)
	assert.NotEmpty(t, u.ID)
}

func TestRegister_CollectorNeedsAdmin(t *testing.T) {
	f := newFixture(t)
	req := api.RegisterRequest{Email: "kol@example.com", Role: account.RoleCollector, NamaLengkap: "Kol"}

	rec := f.do(t, http.MethodPost, "/api/users/register", "", req, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adm := f.seedUser(t, admin)
	rec = f.do(t, http.MethodPost, "/api/users/register", token(t, adm), req, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, ratna)
	rec := f.do(t, http.MethodPost, "/api/users/register", "", api.RegisterRequest{
		Email: ratna.Email, NamaLengkap: "Lain",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// CHECKOUT AND ORDER VISIBILITY
// =============================================================================

func TestCheckout_PricesOrderFromCatalogue(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")

	// (1.000.000 - 100.000) * 1.20 / 60, snapped to the nearest step.
	assert.Equal(t, int64(18_000), dto.InstallmentPrice)
	assert.Equal(t, 60, dto.Tenor)
	assert.Equal(t, ledger.StatusProcessing, dto.Status)
	assert.Equal(t, "2 Januari 2025", dto.Date)
	assert.Equal(t, ratna.NamaLengkap, dto.ConsumerName)
	assert.Equal(t, ratna.NomorKtp, dto.NomorKtp)
	assert.Equal(t, 60, dto.RemainingCount)
}

func TestCheckout_UnknownTenorRejected(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, ratna)
	f.seedProduct(t, kompor)
	rec := f.do(t, http.MethodPost, "/api/orders", token(t, ratna), api.CheckoutRequest{
		ProductID: kompor.ID, Tenor: 75, PaymentFrequency: "harian", ShippingAddress: "Jl. Melati 1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_CollectorMayNot(t *testing.T) {
	f := newFixture(t)
	b := f.seedUser(t, budi)
	f.seedProduct(t, kompor)
	rec := f.do(t, http.MethodPost, "/api/orders", token(t, b), api.CheckoutRequest{
		ProductID: kompor.ID, Tenor: 60, PaymentFrequency: "harian", ShippingAddress: "x",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrders_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	f.deliver(t, dto.ID)

	other := f.seedUser(t, account.User{ID: "user-x", Email: "x@example.com",
		Role: account.RoleConsumer, NamaLengkap: "X"})

	var mine []api.OrderDTO
	f.do(t, http.MethodGet, "/api/orders", token(t, ratna), nil, &mine)
	assert.Len(t, mine, 1)

	var theirs []api.OrderDTO
	f.do(t, http.MethodGet, "/api/orders", token(t, other), nil, &theirs)
	assert.Empty(t, theirs)

	var assigned []api.OrderDTO
	f.do(t, http.MethodGet, "/api/orders", token(t, budi), nil, &assigned)
	assert.Len(t, assigned, 1)

	rec := f.do(t, http.MethodGet, "/api/orders/"+dto.ID, token(t, other), nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =============================================================================
// COLLECTION FLOW OVER HTTP
// =============================================================================

func TestPaymentFlow_DailyThenReport(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	f.deliver(t, dto.ID)

	var res api.PaymentResultDTO
	rec := f.do(t, http.MethodPost, "/api/orders/"+dto.ID+"/payments", token(t, budi), nil, &res)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, res.InstallmentsPaid)
	assert.Equal(t, 1, res.Order.PaymentsMade)

	// Second payment same day is allowed: catch-up collections happen.
	rec = f.do(t, http.MethodPost, "/api/orders/"+dto.ID+"/payments", token(t, budi), nil, &res)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, res.Order.PaymentsMade)

	var daily struct {
		AmountCollected int64 `json:"amountCollected"`
		VisitCount      int   `json:"visitCount"`
		SuccessRate     int   `json:"successRate"`
	}
	// The report tallies one installment per order per date, no matter how
	// many catch-up payments landed that day.
	rec = f.do(t, http.MethodGet, "/api/reports/daily?date=2025-01-02", token(t, budi), nil, &daily)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(18_000), daily.AmountCollected)
	assert.Equal(t, 1, daily.VisitCount)
	assert.Equal(t, 100, daily.SuccessRate)
}

func TestPayment_WrongCollectorForbidden(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	f.deliver(t, dto.ID)

	intruder := f.seedUser(t, account.User{ID: "kol-lain", Email: "lain@example.com",
		Role: account.RoleCollector, NamaLengkap: "Lain"})
	rec := f.do(t, http.MethodPost, "/api/orders/"+dto.ID+"/payments", token(t, intruder), nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPayment_AdminActsAsAssignedCollector(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	f.deliver(t, dto.ID)

	var res api.PaymentResultDTO
	rec := f.do(t, http.MethodPost, "/api/orders/"+dto.ID+"/payments", token(t, admin), nil, &res)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, budi.NamaLengkap, res.Order.Payments[0].CollectedBy)
}

func TestVisitNote_EmptyReasonRejected(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	f.deliver(t, dto.ID)

	rec := f.do(t, http.MethodPost, "/api/orders/"+dto.ID+"/notes", token(t, budi),
		api.VisitNoteRequest{Reason: ""}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/orders/"+dto.ID+"/notes", token(t, budi),
		api.VisitNoteRequest{Reason: ledger.ReasonNoMoney}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestStatus_InvalidTransitionConflicts(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	adm := f.seedUser(t, admin)

	// Proses -> Terkirim skips Pengiriman.
	rec := f.do(t, http.MethodPut, "/api/orders/"+dto.ID+"/status", token(t, adm),
		api.StatusRequest{Status: string(ledger.StatusDelivered)}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/orders/"+dto.ID+"/status", token(t, adm),
		api.StatusRequest{Status: "Dikirim"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatus_DeliveryFixesMaturity(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	f.deliver(t, dto.ID)

	var got api.OrderDTO
	f.do(t, http.MethodGet, "/api/orders/"+dto.ID, token(t, ratna), nil, &got)
	// 60 business days after Thursday 2 Jan 2025, Sundays skipped.
	assert.Equal(t, "13 Maret 2025", got.TanggalLunas)
}

func TestAssignCollector_RejectsNonCollector(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	adm := f.seedUser(t, admin)

	rec := f.do(t, http.MethodPut, "/api/orders/"+dto.ID+"/collector", token(t, adm),
		api.AssignCollectorRequest{CollectorUID: ratna.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHistory_MergedTimeline(t *testing.T) {
	f := newFixture(t)
	dto := f.checkoutOrder(t, "harian")
	f.deliver(t, dto.ID)

	f.do(t, http.MethodPost, "/api/orders/"+dto.ID+"/payments", token(t, budi), nil, nil)
	f.do(t, http.MethodPost, "/api/orders/"+dto.ID+"/notes", token(t, budi),
		api.VisitNoteRequest{Reason: ledger.ReasonDeferral}, nil)

	var hist api.HistoryDTO
	rec := f.do(t, http.MethodGet, "/api/orders/"+dto.ID+"/history", token(t, ratna), nil, &hist)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, hist.Entries, 2)
}

// =============================================================================
// CATALOGUE AND CONTENT
// =============================================================================

func TestProducts_AdminOnlyWrites(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, ratna)
	adm := f.seedUser(t, admin)

	rec := f.do(t, http.MethodPost, "/api/products", token(t, u), kompor, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var created catalog.Product
	rec = f.do(t, http.MethodPost, "/api/products", token(t, adm), kompor, &created)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var list []catalog.Product
	f.do(t, http.MethodGet, "/api/products", token(t, u), nil, &list)
	assert.Len(t, list, 1)

	rec = f.do(t, http.MethodDelete, "/api/products/"+created.ID, token(t, adm), nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/products/"+created.ID, token(t, u), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_DPAboveCostRejected(t *testing.T) {
	f := newFixture(t)
	adm := f.seedUser(t, admin)
	bad := catalog.Product{Name: "Mixer", HargaModal: 100_000, DP: 200_000}
	rec := f.do(t, http.MethodPost, "/api/products", token(t, adm), bad, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBroadcastsAndPromos(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, ratna)
	adm := f.seedUser(t, admin)

	rec := f.do(t, http.MethodPost, "/api/broadcasts", token(t, adm),
		api.BroadcastRequest{Title: "Libur", Message: "Tutup tanggal merah"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/broadcasts", token(t, u),
		api.BroadcastRequest{Title: "x", Message: "y"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var broadcasts []catalog.Broadcast
	f.do(t, http.MethodGet, "/api/broadcasts", token(t, u), nil, &broadcasts)
	assert.Len(t, broadcasts, 1)

	for i := 0; i < 2; i++ {
		rec = f.do(t, http.MethodPost, "/api/promos", token(t, adm),
			api.PromoRequest{Title: fmt.Sprintf("Promo %d", i)}, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	var promos []catalog.Promo
	f.do(t, http.MethodGet, "/api/promos", token(t, u), nil, &promos)
	assert.Len(t, promos, 2)
}

func TestProfile_UpdateRoundTrip(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, ratna)

	var updated account.User
	rec := f.do(t, http.MethodPut, "/api/users/me", token(t, u), api.ProfileRequest{
		NamaLengkap: "Ratna S.", JenisUsaha: "Toko Kelontong", AlamatRumah: "Jl. Mawar 2",
	}, &updated)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Toko Kelontong", updated.JenisUsaha)

	var got account.User
	f.do(t, http.MethodGet, "/api/users/me", token(t, u), nil, &got)
	assert.Equal(t, "Ratna S.", got.NamaLengkap)
	// Role and email never change through the profile path.
	assert.Equal(t, ratna.Email, got.Email)
	assert.Equal(t, account.RoleConsumer, got.Role)
}

func TestListUsers_FiltersByRole(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, ratna)
	f.seedUser(t, budi)
	adm := f.seedUser(t, admin)

	var collectors []account.User
	rec := f.do(t, http.MethodGet, "/api/users?role=kolektor", token(t, adm), nil, &collectors)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, collectors, 1)
	assert.Equal(t, budi.ID, collectors[0].ID)

	rec = f.do(t, http.MethodGet, "/api/users?role=bos", token(t, adm), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
