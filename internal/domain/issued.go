package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// IssuedDocument is the audit record of one create-invoice or create-receipt
// request, whether or not every step succeeded.
type IssuedDocument struct {
	IssuedID      string          `json:"issued_id"`
	DocumentID    string          `json:"document_id,omitempty"`
	DocumentType  DocumentType    `json:"document_type"`
	Description   string          `json:"description"`
	Client        string          `json:"client"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	Date          civil.Date      `json:"date"`
	Link          string          `json:"link,omitempty"`
	LinkKind      string          `json:"link_kind"`
	EntryID       string          `json:"entry_id,omitempty"`
	Reconciled    bool            `json:"reconciled"`
	Stage         string          `json:"stage"`
	EmailJobID    string          `json:"email_job_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
