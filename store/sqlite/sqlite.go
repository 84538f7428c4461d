/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Implements ledger.OrderStore and catalog.Store plus the flat record
  stores (users, broadcasts, promos) on a single SQLite file. The same
  patterns carry to PostgreSQL with minor dialect changes.

ORDER CONCURRENCY:
  The orders table carries a version column. Save issues

    UPDATE orders SET ..., version = version + 1
    WHERE id = ? AND version = ?

  and treats zero affected rows as ledger.ErrConcurrentModification. That
  makes the read-modify-write cycle in ledger.Service an honest
  compare-and-swap: two racing payment requests cannot both land.

EVENT STORAGE:
  Payment and visit-note lists are serialized as JSON columns, matching
  how the records have always been stored. They are only ever read and
  rewritten whole under the version guard, never queried by SQL.

WAL MODE:
  The database is opened with WAL so readers do not block the single
  writer. A sync.Mutex additionally serializes order writes in-process.

MIGRATION:
  Schema is auto-migrated on New(). For a production rollout use a
  versioned migration tool instead.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tokocicil/collection-engine/ledger"
)

// Store implements all persistence interfaces on one SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		order_number TEXT NOT NULL,
		date TEXT NOT NULL,
		product_name TEXT NOT NULL,
		tenor INTEGER NOT NULL,
		installment_price INTEGER NOT NULL,
		payment_frequency TEXT NOT NULL,
		status TEXT NOT NULL,
		payments_json TEXT NOT NULL DEFAULT '[]',
		collection_notes_json TEXT NOT NULL DEFAULT '[]',
		user_id TEXT NOT NULL,
		consumer_name TEXT,
		consumer_email TEXT,
		shipping_address TEXT,
		jenis_usaha TEXT,
		alamat_usaha TEXT,
		alamat_rumah TEXT,
		nomor_ktp TEXT,
		nama_sales TEXT,
		assigned_collector TEXT,
		assigned_collector_uid TEXT,
		tanggal_lunas TEXT,
		timestamp TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
	CREATE INDEX IF NOT EXISTS idx_orders_collector ON orders(assigned_collector_uid);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		harga_modal INTEGER NOT NULL,
		dp INTEGER NOT NULL DEFAULT 0,
		images_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		nama_lengkap TEXT,
		jenis_usaha TEXT,
		alamat_usaha TEXT,
		alamat_rumah TEXT,
		nomor_ktp TEXT,
		nama_sales TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

	CREATE TABLE IF NOT EXISTS broadcasts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS promos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		image_url TEXT,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ORDER STORE - ledger.OrderStore with version CAS
// =============================================================================

var _ ledger.OrderStore = (*Store)(nil)

const orderColumns = `id, order_number, date, product_name, tenor, installment_price,
	payment_frequency, status, payments_json, collection_notes_json, user_id,
	consumer_name, consumer_email, shipping_address, jenis_usaha, alamat_usaha,
	alamat_rumah, nomor_ktp, nama_sales, assigned_collector, assigned_collector_uid,
	tanggal_lunas, timestamp, version`

func (s *Store) Get(ctx context.Context, id string) (*ledger.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) Create(ctx context.Context, o *ledger.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments, notes, err := marshalEvents(o)
	if err != nil {
		return err
	}
	o.Version = 1
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.Date, o.ProductName, o.Tenor, o.InstallmentPrice,
		o.PaymentFrequency, o.Status, payments, notes, o.UserID,
		o.ConsumerName, o.ConsumerEmail, o.ShippingAddress, o.JenisUsaha, o.AlamatUsaha,
		o.AlamatRumah, o.NomorKtp, o.NamaSales, o.AssignedCollector, o.AssignedCollectorUID,
		o.TanggalLunas, o.Timestamp.UTC().Format(time.RFC3339), o.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Save overwrites the order only if the stored version still matches.
// Zero affected rows means another writer got there first.
func (s *Store) Save(ctx context.Context, o *ledger.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments, notes, err := marshalEvents(o)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET
			status = ?, payments_json = ?, collection_notes_json = ?,
			assigned_collector = ?, assigned_collector_uid = ?, tanggal_lunas = ?,
			version = version + 1
		WHERE id = ? AND version = ?`,
		o.Status, payments, notes,
		o.AssignedCollector, o.AssignedCollectorUID, o.TanggalLunas,
		o.ID, o.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the version moved or the order is gone; distinguish so
		// callers retry only the former.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM orders WHERE id = ?`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ledger.ErrOrderNotFound
		}
		return ledger.ErrConcurrentModification
	}
	o.Version++
	return nil
}

func (s *Store) List(ctx context.Context) ([]*ledger.Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY timestamp DESC`)
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]*ledger.Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY timestamp DESC`, userID)
}

func (s *Store) ListByCollector(ctx context.Context, uid string) ([]*ledger.Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE assigned_collector_uid = ? ORDER BY timestamp DESC`, uid)
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]*ledger.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*ledger.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*ledger.Order, error) {
	var (
		o               ledger.Order
		payments, notes string
		ts              string
		nullable        = make([]sql.NullString, 11)
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Date, &o.ProductName, &o.Tenor, &o.InstallmentPrice,
		&o.PaymentFrequency, &o.Status, &payments, &notes, &o.UserID,
		&nullable[0], &nullable[1], &nullable[2], &nullable[3], &nullable[4],
		&nullable[5], &nullable[6], &nullable[7], &nullable[8], &nullable[9],
		&nullable[10], &ts, &o.Version,
	)
	if err != nil {
		return nil, err
	}

	o.ConsumerName = nullable[0].String
	o.ConsumerEmail = nullable[1].String
	o.ShippingAddress = nullable[2].String
	o.JenisUsaha = nullable[3].String
	o.AlamatUsaha = nullable[4].String
	o.AlamatRumah = nullable[5].String
	o.NomorKtp = nullable[6].String
	o.NamaSales = nullable[7].String
	o.AssignedCollector = nullable[8].String
	o.AssignedCollectorUID = nullable[9].String
	o.TanggalLunas = nullable[10].String

	if o.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
		return nil, fmt.Errorf("order %s: bad timestamp %q: %w", o.ID, ts, err)
	}
	if err := json.Unmarshal([]byte(payments), &o.Payments); err != nil {
		return nil, fmt.Errorf("order %s: bad payments json: %w", o.ID, err)
	}
	if err := json.Unmarshal([]byte(notes), &o.CollectionNotes); err != nil {
		return nil, fmt.Errorf("order %s: bad collection notes json: %w", o.ID, err)
	}
	if o.Payments == nil {
		o.Payments = []ledger.Payment{}
	}
	if o.CollectionNotes == nil {
		o.CollectionNotes = []ledger.VisitNote{}
	}
	return &o, nil
}

func marshalEvents(o *ledger.Order) (payments, notes string, err error) {
	p, err := json.Marshal(o.Payments)
	if err != nil {
		return "", "", err
	}
	n, err := json.Marshal(o.CollectionNotes)
	if err != nil {
		return "", "", err
	}
	return string(p), string(n), nil
}
