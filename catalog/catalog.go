/*
Package catalog manages the product catalogue.

PURPOSE:
  Products are what consumers finance: a base cost (hargaModal), an
  optional down payment (dp), and images. Admins maintain the catalogue;
  every role reads it. The pricing engine consumes hargaModal/dp together
  with a tenor option to fix the installment amount at checkout.

INVARIANTS:
  hargaModal >= 0 and dp <= hargaModal, validated before any write.
*/
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrProductNotFound = errors.New("product not found")

// Product is one catalogue entry. Amounts are whole rupiah.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	HargaModal  int64    `json:"hargaModal" validate:"gte=0"`
	DP          int64    `json:"dp" validate:"gte=0"`
	Images      []string `json:"images"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

var validate = validator.New()

// Validate checks the product invariants. Returns a validation-taxonomy
// error suitable for a 400 response.
func (p *Product) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.DP > p.HargaModal {
		return fmt.Errorf("dp %d exceeds hargaModal %d", p.DP, p.HargaModal)
	}
	return nil
}

// Store persists products. Plain CRUD: the catalogue has no ledger
// semantics and no concurrent-mutation hazard worth a version column.
type Store interface {
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Product, error)
}
