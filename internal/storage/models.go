// Package storage provides database models and repositories for invoices
// and user profiles.
package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/facturier/facturier/internal/extract"
)

// AddressLines is a postal address as a list of lines. It is stored as
// newline-joined TEXT.
type AddressLines []string

// Value implements driver.Valuer.
func (a AddressLines) Value() (driver.Value, error) {
	return strings.Join(a, "\n"), nil
}

// Scan implements sql.Scanner. Empty and NULL columns scan to an empty
// list, never nil, so JSON responses carry [] instead of null.
func (a *AddressLines) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*a = AddressLines{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into AddressLines", src)
	}
	if s == "" {
		*a = AddressLines{}
		return nil
	}
	*a = AddressLines(strings.Split(s, "\n"))
	return nil
}

// LineItems is an invoice item list stored as a JSON column.
type LineItems []extract.LineItem

// Value implements driver.Valuer.
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		l = LineItems{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *LineItems) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = LineItems{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into LineItems", src)
	}
	if len(data) == 0 {
		*l = LineItems{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// Invoice is a stored invoice or estimate. Number travels as
// invoice_number on the wire and in the schema.
type Invoice struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	Number      string           `json:"invoice_number" db:"invoice_number"`
	Date        string           `json:"date" db:"date"`
	DocTitle    string           `json:"doc_title" db:"doc_title"`
	Mode        extract.Mode     `json:"mode" db:"mode"`
	Language    extract.Language `json:"language" db:"language"`
	FromAddress AddressLines     `json:"from_address" db:"from_address"`
	ToAddress   AddressLines     `json:"to_address" db:"to_address"`
	Items       LineItems        `json:"items" db:"items"`
	Total       float64          `json:"total" db:"total"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// Profile carries per-user issuer details used to prefill documents.
type Profile struct {
	UserID      uuid.UUID    `json:"user_id" db:"user_id"`
	FullName    string       `json:"full_name" db:"full_name"`
	CompanyName string       `json:"company_name" db:"company_name"`
	Address     AddressLines `json:"address" db:"address"`
	Phone       string       `json:"phone" db:"phone"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}
