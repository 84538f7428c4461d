package catalog

import (
	"context"
	"time"
)

// =============================================================================
// MARKETING CONTENT - broadcasts and promo banners
// =============================================================================

// Broadcast is an announcement pushed by admins to every consumer.
type Broadcast struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" validate:"required"`
	Message   string    `json:"message" validate:"required"`
	Timestamp time.Time `json:"timestamp"`
}

func (b *Broadcast) Validate() error { return validate.Struct(b) }

// Promo is a promotional banner shown on the storefront.
type Promo struct {
	ID        string `json:"id"`
	Title     string `json:"title" validate:"required"`
	ImageURL  string `json:"imageUrl,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func (p *Promo) Validate() error { return validate.Struct(p) }

// BroadcastStore persists broadcasts, newest first on List.
type BroadcastStore interface {
	Save(ctx context.Context, b *Broadcast) error
	List(ctx context.Context) ([]Broadcast, error)
}

// PromoStore persists promo banners, newest first on List.
type PromoStore interface {
	Save(ctx context.Context, p *Promo) error
	List(ctx context.Context) ([]Promo, error)
}
