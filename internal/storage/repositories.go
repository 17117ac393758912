package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// InvoiceRepository handles invoice CRUD operations. Every query is
// scoped by user_id; an invoice is never visible outside its owner.
type InvoiceRepository struct {
	db DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts a new invoice owned by inv.UserID.
func (r *InvoiceRepository) Create(ctx context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO invoices (id, user_id, invoice_number, date, doc_title, mode, language,
			from_address, to_address, items, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.UserID, inv.Number, inv.Date, inv.DocTitle, inv.Mode, inv.Language,
		inv.FromAddress, inv.ToAddress, inv.Items, inv.Total, inv.CreatedAt,
	)
	return err
}

// GetByID retrieves an invoice by ID with user scoping.
func (r *InvoiceRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*Invoice, error) {
	query := `
		SELECT id, user_id, invoice_number, date, doc_title, mode, language,
			from_address, to_address, items, total, created_at
		FROM invoices
		WHERE id = $1 AND user_id = $2
	`
	inv := &Invoice{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&inv.ID, &inv.UserID, &inv.Number, &inv.Date, &inv.DocTitle, &inv.Mode, &inv.Language,
		&inv.FromAddress, &inv.ToAddress, &inv.Items, &inv.Total, &inv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

// ListByUser lists all invoices for a user, newest first.
func (r *InvoiceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error) {
	query := `
		SELECT id, user_id, invoice_number, date, doc_title, mode, language,
			from_address, to_address, items, total, created_at
		FROM invoices
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []*Invoice{} // never nil so the API serializes an empty list
	for rows.Next() {
		inv := &Invoice{}
		if err := rows.Scan(
			&inv.ID, &inv.UserID, &inv.Number, &inv.Date, &inv.DocTitle, &inv.Mode, &inv.Language,
			&inv.FromAddress, &inv.ToAddress, &inv.Items, &inv.Total, &inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// Delete removes an invoice with user scoping.
func (r *InvoiceRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM invoices WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ProfileRepository handles issuer profile operations.
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get retrieves the profile for a user.
func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	query := `
		SELECT user_id, full_name, company_name, address, phone, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	p := &Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.FullName, &p.CompanyName, &p.Address, &p.Phone, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Upsert creates or replaces the profile for p.UserID.
func (r *ProfileRepository) Upsert(ctx context.Context, p *Profile) error {
	p.UpdatedAt = time.Now()

	query := `
		INSERT INTO profiles (user_id, full_name, company_name, address, phone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = excluded.full_name,
			company_name = excluded.company_name,
			address = excluded.address,
			phone = excluded.phone,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.FullName, p.CompanyName, p.Address, p.Phone, p.UpdatedAt,
	)
	return err
}

// Repositories bundles all repositories together.
type Repositories struct {
	Invoices *InvoiceRepository
	Profiles *ProfileRepository
}

// NewRepositories creates all repositories with the given database connection.
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		Invoices: NewInvoiceRepository(db),
		Profiles: NewProfileRepository(db),
	}
}
