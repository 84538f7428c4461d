/*
handlers.go - HTTP API handlers for the collection engine

PURPOSE:
  Exposes the installment and collection domain via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Users:
    POST   /api/users/register         Register an account
    GET    /api/users/me               Caller's profile
    PUT    /api/users/me               Update caller's profile
    GET    /api/users?role=kolektor    List accounts by role (admin)

  Catalogue:
    GET    /api/products               List products
    GET    /api/products/{id}          Get product
    POST   /api/products               Create product (admin)
    PUT    /api/products/{id}          Update product (admin)
    DELETE /api/products/{id}          Delete product (admin)

  Orders:
    GET    /api/orders                 List orders, scoped by role
    POST   /api/orders                 Checkout (konsumen)
    GET    /api/orders/{id}            Get order
    GET    /api/orders/{id}/history    Merged payment/visit timeline
    POST   /api/orders/{id}/payments   Record a payment (kolektor/admin)
    POST   /api/orders/{id}/notes      Record a visit note (kolektor/admin)
    PUT    /api/orders/{id}/status     Advance lifecycle (admin)
    PUT    /api/orders/{id}/collector  Assign collector (admin)

  Reporting:
    GET    /api/reports/daily          Daily collection report

  Content:
    GET/POST /api/broadcasts           Announcements (POST admin)
    GET/POST /api/promos               Promo banners (POST admin)

REQUEST FLOW:
  1. Parse and validate the payload (go-playground/validator tags)
  2. Resolve the caller identity from the request context
  3. Call domain logic (ledger service, catalog, report)
  4. Serialize response
  5. Map domain errors to HTTP status

ERROR HANDLING:
  The ledger error taxonomy maps onto HTTP:
  - 400: validation, empty reason, incomplete collector
  - 403: not assigned / role not permitted
  - 404: order, product, or user not found
  - 409: state conflicts (already paid off, bad transition, CAS loss)
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Identity extraction and role gates
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tokocicil/collection-engine/account"
	"github.com/tokocicil/collection-engine/calendar"
	"github.com/tokocicil/collection-engine/catalog"
	"github.com/tokocicil/collection-engine/holiday"
	"github.com/tokocicil/collection-engine/ledger"
	"github.com/tokocicil/collection-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger     *ledger.Service
	Orders     ledger.OrderStore
	Products   catalog.Store
	Users      account.Store
	Broadcasts catalog.BroadcastStore
	Promos     catalog.PromoStore
	Holidays   holiday.Source

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

// Deps bundles the stores a handler needs.
type Deps struct {
	Orders     ledger.OrderStore
	Products   catalog.Store
	Users      account.Store
	Broadcasts catalog.BroadcastStore
	Promos     catalog.PromoStore
	Holidays   holiday.Source
}

// NewHandler wires a handler and its ledger service from the given stores.
func NewHandler(d Deps) *Handler {
	return &Handler{
		Ledger:     ledger.NewService(d.Orders, d.Holidays),
		Orders:     d.Orders,
		Products:   d.Products,
		Users:      d.Users,
		Broadcasts: d.Broadcasts,
		Promos:     d.Promos,
		Holidays:   d.Holidays,
		Now:        time.Now,
	}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// Register creates an account. Anyone may register as konsumen; creating
// admin or kolektor accounts requires an admin caller.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	role := req.Role
	if role == "" {
		role = account.RoleConsumer
	}
	if role != account.RoleConsumer {
		id, ok := IdentityFrom(r.Context())
		if !ok || id.Role != account.RoleAdmin {
			writeError(w, http.StatusForbidden, "Only admins may register this role", nil)
			return
		}
	}

	if _, err := h.Users.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "Email already registered", nil)
		return
	}

	u := &account.User{
		ID:          uuid.NewString(),
		Email:       req.Email,
		Role:        role,
		NamaLengkap: req.NamaLengkap,
	}
	if err := u.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid registration", err)
		return
	}
	if err := h.Users.Save(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetProfile returns the caller's account record.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	u, err := h.Users.Get(r.Context(), id.UID)
	if err != nil {
		writeDomainError(w, "Failed to load profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateProfile updates the caller's profile fields. Email and role are
// write-once; the store upsert ignores them.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	var req ProfileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u, err := h.Users.Get(r.Context(), id.UID)
	if err != nil {
		writeDomainError(w, "Failed to load profile", err)
		return
	}
	if req.NamaLengkap != "" {
		u.NamaLengkap = req.NamaLengkap
	}
	u.JenisUsaha = req.JenisUsaha
	u.AlamatUsaha = req.AlamatUsaha
	u.AlamatRumah = req.AlamatRumah
	u.NomorKtp = req.NomorKtp
	u.NamaSales = req.NamaSales

	if err := h.Users.Save(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListUsers returns accounts filtered by role. Admin only; backs the
// collector picker and the consumer roster.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if !account.ValidRole(role) {
		writeError(w, http.StatusBadRequest, "Unknown role filter", nil)
		return
	}
	users, err := h.Users.ListByRole(r.Context(), role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []account.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns the catalogue, newest first.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct returns one catalogue entry.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProduct adds a catalogue entry.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := h.Products.Create(r.Context(), &p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct replaces a catalogue entry.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}
	if err := h.Products.Update(r.Context(), &p); err != nil {
		writeDomainError(w, "Failed to update product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct removes a catalogue entry. Existing orders keep their
// snapshot of the product name and price.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// ListOrders returns orders scoped to the caller: konsumen see their own,
// kolektor see their assignments, admin see everything.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var (
		orders []*ledger.Order
		err    error
	)
	switch id.Role {
	case account.RoleConsumer:
		orders, err = h.Orders.ListByUser(r.Context(), id.UID)
	case account.RoleCollector:
		orders, err = h.Orders.ListByCollector(r.Context(), id.UID)
	default:
		orders, err = h.Orders.List(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	holidays := h.currentHolidays(r)
	today := calendar.DateOf(h.Now())
	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = h.orderDTO(o, today, holidays)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOrder returns one order if the caller may see it.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadVisibleOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.orderDTO(o, calendar.DateOf(h.Now()), h.currentHolidays(r)))
}

// GetOrderHistory returns the merged payment/visit timeline.
func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadVisibleOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, HistoryDTO{OrderID: o.ID, Entries: o.History()})
}

// Checkout creates an order for the authenticated consumer. The profile
// snapshot comes from the user store, not the request, so clients cannot
// forge another consumer's identity onto an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	var req CheckoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.Products.Get(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, "Failed to resolve product", err)
		return
	}
	u, err := h.Users.Get(r.Context(), id.UID)
	if err != nil {
		writeDomainError(w, "Failed to resolve consumer profile", err)
		return
	}

	o, err := h.Ledger.Checkout(r.Context(),
		ledger.ProductInfo{ID: p.ID, Name: p.Name, HargaModal: p.HargaModal, DP: p.DP},
		ledger.CartItem{
			ProductID: p.ID,
			TenorDays: req.Tenor,
			Frequency: ledger.Frequency(req.PaymentFrequency),
		},
		ledger.ConsumerProfile{
			UserID:      u.ID,
			Name:        u.NamaLengkap,
			Email:       u.Email,
			JenisUsaha:  u.JenisUsaha,
			AlamatUsaha: u.AlamatUsaha,
			AlamatRumah: u.AlamatRumah,
			NomorKtp:    u.NomorKtp,
			NamaSales:   u.NamaSales,
		},
		req.ShippingAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Checkout rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.orderDTO(o, calendar.DateOf(h.Now()), nil))
}

// RecordPayment settles installments as the authenticated collector.
// Admins may record on any order via the same row-level rule: the ledger
// only accepts the assigned collector, so admins pass the stored identity.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	o, added, err := h.Ledger.RecordPayment(r.Context(), orderID, h.actingCollector(r, id, orderID))
	if err != nil {
		writeDomainError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentResultDTO{
		Order:            h.orderDTO(o, calendar.DateOf(h.Now()), nil),
		InstallmentsPaid: added,
	})
}

// RecordVisitNote records a no-payment visit as the authenticated collector.
func (h *Handler) RecordVisitNote(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	var req VisitNoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	orderID := chi.URLParam(r, "id")
	o, err := h.Ledger.RecordVisitNote(r.Context(), orderID, h.actingCollector(r, id, orderID), req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to record visit note", err)
		return
	}
	writeJSON(w, http.StatusOK, h.orderDTO(o, calendar.DateOf(h.Now()), nil))
}

// UpdateStatus advances the order lifecycle. Entering Terkirim fixes the
// maturity date.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !ledger.ValidStatus(ledger.Status(req.Status)) {
		writeError(w, http.StatusBadRequest, "Unknown status", nil)
		return
	}

	o, err := h.Ledger.UpdateStatus(r.Context(), chi.URLParam(r, "id"), ledger.Status(req.Status))
	if err != nil {
		writeDomainError(w, "Failed to update status", err)
		return
	}
	writeJSON(w, http.StatusOK, h.orderDTO(o, calendar.DateOf(h.Now()), nil))
}

// AssignCollector assigns a collector to an order, resolving the display
// name from the user store.
func (h *Handler) AssignCollector(w http.ResponseWriter, r *http.Request) {
	var req AssignCollectorRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u, err := h.Users.Get(r.Context(), req.CollectorUID)
	if err != nil {
		writeDomainError(w, "Failed to resolve collector", err)
		return
	}
	if u.Role != account.RoleCollector {
		writeError(w, http.StatusBadRequest, "User is not a collector", nil)
		return
	}

	o, err := h.Ledger.AssignCollector(r.Context(), chi.URLParam(r, "id"), u.ID, u.NamaLengkap)
	if err != nil {
		writeDomainError(w, "Failed to assign collector", err)
		return
	}
	writeJSON(w, http.StatusOK, h.orderDTO(o, calendar.DateOf(h.Now()), nil))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailyReport aggregates the collection ledger for one date.
// Query params: date (ISO, default today), collector (uid, name, or "all").
// Collectors always get their own scope regardless of the param.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	target := calendar.DateOf(h.Now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		var err error
		if target, err = calendar.ParseISO(raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, want YYYY-MM-DD", err)
			return
		}
	}

	filter := r.URL.Query().Get("collector")
	if id.Role == account.RoleCollector {
		filter = id.UID
	}

	orders, err := h.Orders.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, report.BuildDaily(orders, target, filter))
}

// =============================================================================
// CONTENT HANDLERS
// =============================================================================

// ListBroadcasts returns announcements, newest first.
func (h *Handler) ListBroadcasts(w http.ResponseWriter, r *http.Request) {
	out, err := h.Broadcasts.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list broadcasts", err)
		return
	}
	if out == nil {
		out = []catalog.Broadcast{}
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateBroadcast publishes an announcement.
func (h *Handler) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	b := &catalog.Broadcast{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Message:   req.Message,
		Timestamp: h.Now().UTC(),
	}
	if err := h.Broadcasts.Save(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save broadcast", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// ListPromos returns promo banners, newest first.
func (h *Handler) ListPromos(w http.ResponseWriter, r *http.Request) {
	out, err := h.Promos.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list promos", err)
		return
	}
	if out == nil {
		out = []catalog.Promo{}
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePromo publishes a promo banner.
func (h *Handler) CreatePromo(w http.ResponseWriter, r *http.Request) {
	var req PromoRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p := &catalog.Promo{ID: uuid.NewString(), Title: req.Title, ImageURL: req.ImageURL}
	if err := h.Promos.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save promo", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Health is the unauthenticated liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// loadVisibleOrder loads the order and enforces row-level visibility for
// the caller's role. Writes the error response itself on failure.
func (h *Handler) loadVisibleOrder(w http.ResponseWriter, r *http.Request) (*ledger.Order, bool) {
	id, _ := IdentityFrom(r.Context())
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get order", err)
		return nil, false
	}

	switch id.Role {
	case account.RoleConsumer:
		if o.UserID != id.UID {
			writeError(w, http.StatusForbidden, "Not your order", nil)
			return nil, false
		}
	case account.RoleCollector:
		if o.AssignedCollectorUID != id.UID {
			writeError(w, http.StatusForbidden, "Order not assigned to you", nil)
			return nil, false
		}
	}
	return o, true
}

// actingCollector resolves who a ledger write is attributed to. Collectors
// act as themselves; admins act as the order's assigned collector so the
// row-level assignment rule still holds.
func (h *Handler) actingCollector(r *http.Request, id Identity, orderID string) ledger.Collector {
	if id.Role != account.RoleAdmin {
		return ledger.Collector{UID: id.UID, Name: id.Name}
	}
	o, err := h.Orders.Get(r.Context(), orderID)
	if err != nil || o.AssignedCollectorUID == "" {
		return ledger.Collector{UID: id.UID, Name: id.Name}
	}
	return ledger.Collector{UID: o.AssignedCollectorUID, Name: o.AssignedCollector}
}

// currentHolidays fetches this year's holidays for late-day math.
// Degrades to none on lookup failure, same as maturity projection.
func (h *Handler) currentHolidays(r *http.Request) calendar.HolidaySet {
	hs, err := h.Holidays.Holidays(r.Context(), h.Now().Year())
	if err != nil {
		return nil
	}
	return hs
}

func (h *Handler) orderDTO(o *ledger.Order, today calendar.Date, holidays calendar.HolidaySet) OrderDTO {
	dto := OrderDTO{
		Order:          o,
		PaymentsMade:   o.PaymentsMade(),
		RemainingCount: o.RemainingCount(),
	}
	if o.Status == ledger.StatusDelivered {
		dto.LateDays = o.LateDays(today, holidays)
	}
	return dto
}

// decode parses the body and runs validator tags.
func decode(r *http.Request, v any) error {
	if err := decodeBody(r, v); err != nil {
		return err
	}
	return checkValid(v)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the domain error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsNotFound(err),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, account.ErrUserNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsAuthorization(err):
		writeError(w, http.StatusForbidden, message, err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, ledger.ErrEmptyReason),
		errors.Is(err, ledger.ErrIncompleteCollector):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
