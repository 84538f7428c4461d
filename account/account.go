/*
Package account holds user accounts and roles.

PURPOSE:
  Three roles share the system: konsumen buy on installment, kolektor
  work the field ledger, admin runs everything else. The role is fixed at
  registration and drives every authorization decision in the API layer.

  Profile fields (business type, addresses, KTP number, sales rep) are
  mirrored onto each order at checkout as a snapshot: editing a profile
  never rewrites order history.
*/
package account

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrUserNotFound = errors.New("user not found")

// Roles. Values are the Indonesian wire strings stored in JWT claims and
// user records.
const (
	RoleConsumer  = "konsumen"
	RoleAdmin     = "admin"
	RoleCollector = "kolektor"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r string) bool {
	return r == RoleConsumer || r == RoleAdmin || r == RoleCollector
}

// User is one account record.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email" validate:"required,email"`
	Role        string `json:"role" validate:"required"`
	NamaLengkap string `json:"namaLengkap" validate:"required"`
	JenisUsaha  string `json:"jenisUsaha,omitempty"`
	AlamatUsaha string `json:"alamatUsaha,omitempty"`
	AlamatRumah string `json:"alamatRumah,omitempty"`
	NomorKtp    string `json:"nomorKtp,omitempty"`
	NamaSales   string `json:"namaSales,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

var validate = validator.New()

// Validate checks the registration invariants.
func (u *User) Validate() error {
	if err := validate.Struct(u); err != nil {
		return err
	}
	if !ValidRole(u.Role) {
		return errors.New("unknown role: " + u.Role)
	}
	return nil
}

// Store persists user accounts. Save is an upsert on ID that never
// changes email or role: those are write-once at registration.
type Store interface {
	Save(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role string) ([]User, error)
}

// Stamp sets CreatedAt if unset. Stores call it before the first write.
func (u *User) Stamp(now time.Time) {
	if u.CreatedAt == "" {
		u.CreatedAt = now.UTC().Format(time.RFC3339)
	}
}
