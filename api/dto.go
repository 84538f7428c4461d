/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON request bodies and the few response wrappers the API
  adds on top of the domain types. Orders, products, users, reports and
  marketing content already carry their wire JSON tags on the domain
  structs, so responses mostly serialize those directly; this file holds
  what the domain does not: inbound payloads and derived view fields.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types the API derives from domain state

VALIDATION:
  Inbound payloads carry go-playground/validator tags; handlers run
  checkValid before touching domain logic. Domain invariants (tenor
  catalogue, status transitions, collector assignment) stay in their
  packages - the tags here only reject malformed JSON early.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Order wire contract
*/
package api

import (
	"github.com/go-playground/validator/v10"

	"github.com/tokocicil/collection-engine/ledger"
)

var validate = validator.New()

func checkValid(v any) error { return validate.Struct(v) }

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CheckoutRequest creates one order for the authenticated consumer.
type CheckoutRequest struct {
	ProductID        string `json:"productId" validate:"required"`
	Tenor            int    `json:"tenor" validate:"required,gt=0"`
	PaymentFrequency string `json:"paymentFrequency" validate:"required"`
	ShippingAddress  string `json:"shippingAddress" validate:"required"`
}

// VisitNoteRequest records a no-payment visit.
type VisitNoteRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// StatusRequest moves an order along its lifecycle.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssignCollectorRequest assigns a collector to an order. Uid resolves
// against the user store; the display name is denormalized from there.
type AssignCollectorRequest struct {
	CollectorUID string `json:"collectorUid" validate:"required"`
}

// RegisterRequest creates an account. Role defaults to konsumen; only
// admins may register other roles.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Role        string `json:"role"`
	NamaLengkap string `json:"namaLengkap" validate:"required"`
}

// ProfileRequest updates the caller's profile fields.
type ProfileRequest struct {
	NamaLengkap string `json:"namaLengkap"`
	JenisUsaha  string `json:"jenisUsaha"`
	AlamatUsaha string `json:"alamatUsaha"`
	AlamatRumah string `json:"alamatRumah"`
	NomorKtp    string `json:"nomorKtp"`
	NamaSales   string `json:"namaSales"`
}

// BroadcastRequest publishes an announcement.
type BroadcastRequest struct {
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// PromoRequest publishes a promo banner.
type PromoRequest struct {
	Title    string `json:"title" validate:"required"`
	ImageURL string `json:"imageUrl"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// OrderDTO is an order plus the view fields derived at read time.
type OrderDTO struct {
	*ledger.Order

	PaymentsMade   int `json:"paymentsMade"`
	RemainingCount int `json:"remainingCount"`
	LateDays       int `json:"lateDays"`
}

// PaymentResultDTO reports how many installments one payment settled.
type PaymentResultDTO struct {
	Order            OrderDTO `json:"order"`
	InstallmentsPaid int      `json:"installmentsPaid"`
}

// HistoryDTO is the merged payment/visit timeline of one order.
type HistoryDTO struct {
	OrderID string                `json:"orderId"`
	Entries []ledger.HistoryEntry `json:"entries"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
