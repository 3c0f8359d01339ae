// Package models defines the domain types for the dealership document client.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Document status values assigned by the server. The client surfaces them
// verbatim; unknown values pass through unmodified.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Account roles.
const (
	RoleDealer = "dealer"
	RoleAdmin  = "admin"
)

// MaxUploadBytes is the server-side upload size limit, checked locally
// before any network call.
const MaxUploadBytes = 100 << 20 // 100 MB

// allowedTypes are the upload file extensions the client accepts. The
// server is authoritative; this is a local filter only.
var allowedTypes = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AllowedFile reports whether the filename has an accepted upload extension.
func AllowedFile(name string) bool {
	return allowedTypes[strings.ToLower(filepath.Ext(name))]
}

// User is the account profile returned by the auth endpoints.
type User struct {
	ID             int    `json:"id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	DealershipName string `json:"dealership_name"`
}

// Session pairs a bearer token with the user it authenticates. At most one
// session exists at a time; expiry is discovered reactively via 401, never
// predicted.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Document is one entry in the dealer's document list.
type Document struct {
	ID               int       `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FileType         string    `json:"file_type"`
	Status           string    `json:"status"`
	UploadedAt       Timestamp `json:"uploaded_at"`
}

// DocumentDetail carries the OCR-extracted fields and free-text notes for
// one document. It is fetched lazily and discarded when the review view
// closes; it is never cached.
type DocumentDetail struct {
	ID              int    `json:"id"`
	Filename        string `json:"filename"`
	FileType        string `json:"file_type"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`
	VIN             string `json:"vin"`
	BuyerName       string `json:"buyer_name"`
	SellerName      string `json:"seller_name"`
	SaleDate        string `json:"sale_date"`
	SaleAmount      string `json:"sale_amount"`
	OdometerReading string `json:"odometer_reading"`
	DocumentType    string `json:"document_type"`
}

// Timestamp accepts both RFC 3339 and the zone-less ISO form the backend
// emits ("2006-01-02T15:04:05.999999").
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("models: unrecognized timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}
