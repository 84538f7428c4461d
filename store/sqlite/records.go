package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tokocicil/collection-engine/account"
	"github.com/tokocicil/collection-engine/catalog"
)

// =============================================================================
// PRODUCT STORE - catalog.Store
// =============================================================================

var _ catalog.Store = (*productStore)(nil)

// productStore scopes the catalog interface onto the shared database.
type productStore struct{ s *Store }

// Products returns the catalog view of the store.
func (s *Store) Products() catalog.Store { return &productStore{s: s} }

func (ps *productStore) Get(ctx context.Context, id string) (*catalog.Product, error) {
	row := ps.s.db.QueryRowContext(ctx, `
		SELECT id, name, description, harga_modal, dp, images_json, created_at
		FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrProductNotFound
	}
	return p, err
}

func (ps *productStore) Create(ctx context.Context, p *catalog.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err = ps.s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, harga_modal, dp, images_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.HargaModal, p.DP, string(images), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (ps *productStore) Update(ctx context.Context, p *catalog.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	res, err := ps.s.db.ExecContext(ctx, `
		UPDATE products SET name = ?, description = ?, harga_modal = ?, dp = ?, images_json = ?
		WHERE id = ?`,
		p.Name, p.Description, p.HargaModal, p.DP, string(images), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (ps *productStore) Delete(ctx context.Context, id string) error {
	res, err := ps.s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (ps *productStore) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := ps.s.db.QueryContext(ctx, `
		SELECT id, name, description, harga_modal, dp, images_json, created_at
		FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func scanProduct(row rowScanner) (*catalog.Product, error) {
	var (
		p           catalog.Product
		description sql.NullString
		images      string
	)
	if err := row.Scan(&p.ID, &p.Name, &description, &p.HargaModal, &p.DP, &images, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Description = description.String
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("product %s: bad images json: %w", p.ID, err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

// =============================================================================
// USER STORE - account.Store
// =============================================================================

var _ account.Store = (*userStore)(nil)

type userStore struct{ s *Store }

// Users returns the account view of the store.
func (s *Store) Users() account.Store { return &userStore{s: s} }

func (us *userStore) Save(ctx context.Context, u *account.User) error {
	u.Stamp(time.Now())
	_, err := us.s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, role, nama_lengkap, jenis_usaha, alamat_usaha,
			alamat_rumah, nomor_ktp, nama_sales, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nama_lengkap = excluded.nama_lengkap,
			jenis_usaha = excluded.jenis_usaha,
			alamat_usaha = excluded.alamat_usaha,
			alamat_rumah = excluded.alamat_rumah,
			nomor_ktp = excluded.nomor_ktp,
			nama_sales = excluded.nama_sales`,
		u.ID, u.Email, u.Role, u.NamaLengkap, u.JenisUsaha, u.AlamatUsaha,
		u.AlamatRumah, u.NomorKtp, u.NamaSales, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (us *userStore) Get(ctx context.Context, id string) (*account.User, error) {
	row := us.s.db.QueryRowContext(ctx, `
		SELECT id, email, role, nama_lengkap, jenis_usaha, alamat_usaha,
			alamat_rumah, nomor_ktp, nama_sales, created_at
		FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, account.ErrUserNotFound
	}
	return u, err
}

func (us *userStore) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	row := us.s.db.QueryRowContext(ctx, `
		SELECT id, email, role, nama_lengkap, jenis_usaha, alamat_usaha,
			alamat_rumah, nomor_ktp, nama_sales, created_at
		FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, account.ErrUserNotFound
	}
	return u, err
}

// ListByRole supports the admin views: the kolektor list for assignment
// and the konsumen roster.
func (us *userStore) ListByRole(ctx context.Context, role string) ([]account.User, error) {
	rows, err := us.s.db.QueryContext(ctx, `
		SELECT id, email, role, nama_lengkap, jenis_usaha, alamat_usaha,
			alamat_rumah, nomor_ktp, nama_sales, created_at
		FROM users WHERE role = ? ORDER BY created_at DESC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []account.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*account.User, error) {
	var (
		u        account.User
		nullable = make([]sql.NullString, 6)
	)
	err := row.Scan(&u.ID, &u.Email, &u.Role, &nullable[0],
		&nullable[1], &nullable[2], &nullable[3], &nullable[4], &nullable[5], &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.NamaLengkap = nullable[0].String
	u.JenisUsaha = nullable[1].String
	u.AlamatUsaha = nullable[2].String
	u.AlamatRumah = nullable[3].String
	u.NomorKtp = nullable[4].String
	u.NamaSales = nullable[5].String
	return &u, nil
}

// =============================================================================
// BROADCAST & PROMO STORES - flat announcement records
// =============================================================================

var (
	_ catalog.BroadcastStore = (*broadcastStore)(nil)
	_ catalog.PromoStore     = (*promoStore)(nil)
)

type broadcastStore struct{ s *Store }

// Broadcasts returns the announcement view of the store.
func (s *Store) Broadcasts() catalog.BroadcastStore { return &broadcastStore{s: s} }

func (bs *broadcastStore) Save(ctx context.Context, b *catalog.Broadcast) error {
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now().UTC()
	}
	_, err := bs.s.db.ExecContext(ctx, `
		INSERT INTO broadcasts (id, title, message, timestamp) VALUES (?, ?, ?, ?)`,
		b.ID, b.Title, b.Message, b.Timestamp.UTC().Format(time.RFC3339))
	return err
}

func (bs *broadcastStore) List(ctx context.Context) ([]catalog.Broadcast, error) {
	rows, err := bs.s.db.QueryContext(ctx, `
		SELECT id, title, message, timestamp FROM broadcasts ORDER BY timestamp DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Broadcast
	for rows.Next() {
		var b catalog.Broadcast
		var ts string
		if err := rows.Scan(&b.ID, &b.Title, &b.Message, &ts); err != nil {
			return nil, err
		}
		if b.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type promoStore struct{ s *Store }

// Promos returns the promo-banner view of the store.
func (s *Store) Promos() catalog.PromoStore { return &promoStore{s: s} }

func (ps *promoStore) Save(ctx context.Context, p *catalog.Promo) error {
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := ps.s.db.ExecContext(ctx, `
		INSERT INTO promos (id, title, image_url, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Title, p.ImageURL, p.CreatedAt)
	return err
}

func (ps *promoStore) List(ctx context.Context) ([]catalog.Promo, error) {
	rows, err := ps.s.db.QueryContext(ctx, `
		SELECT id, title, image_url, created_at FROM promos ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Promo
	for rows.Next() {
		var p catalog.Promo
		var img sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &img, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.ImageURL = img.String
		out = append(out, p)
	}
	return out, rows.Err()
}
