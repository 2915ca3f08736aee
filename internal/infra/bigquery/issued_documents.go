package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/shopspring/decimal"
)

// IssuedDocumentsTable is the audit table written once per request.
const IssuedDocumentsTable = "issued_documents"

// numericScale is the number of fractional digits a BigQuery NUMERIC holds.
const numericScale = 9

type IssuedDocumentRow struct {
	IssuedID string `bigquery:"issued_id"` // REQUIRED

	DocumentID   bigquery.NullString `bigquery:"document_id"` // NULLABLE (billing failed)
	DocumentType string              `bigquery:"document_type"`
	Description  string              `bigquery:"description"`
	Client       string              `bigquery:"client"`

	Amount        *big.Rat   `bigquery:"amount"` // REQUIRED NUMERIC
	PaymentMethod string     `bigquery:"payment_method"`
	IssuedOn      civil.Date `bigquery:"issued_on"`

	Link     bigquery.NullString `bigquery:"link"` // NULLABLE
	LinkKind string              `bigquery:"link_kind"`

	EntryID    bigquery.NullString `bigquery:"entry_id"` // NULLABLE (record store failed)
	Reconciled bool                `bigquery:"reconciled"`
	Stage      string              `bigquery:"stage"`
	EmailJobID bigquery.NullString `bigquery:"email_job_id"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// RowFromIssued converts the audit record into its table row.
func RowFromIssued(d domain.IssuedDocument) *IssuedDocumentRow {
	return &IssuedDocumentRow{
		IssuedID:      d.IssuedID,
		DocumentID:    nullString(d.DocumentID),
		DocumentType:  string(d.DocumentType),
		Description:   d.Description,
		Client:        d.Client,
		Amount:        d.Amount.Rat(),
		PaymentMethod: string(d.PaymentMethod),
		IssuedOn:      d.Date,
		Link:          nullString(d.Link),
		LinkKind:      d.LinkKind,
		EntryID:       nullString(d.EntryID),
		Reconciled:    d.Reconciled,
		Stage:         d.Stage,
		EmailJobID:    nullString(d.EmailJobID),
		CreatedTS:     d.CreatedAt,
	}
}

// IssuedFromRow converts a table row back into the audit record.
func IssuedFromRow(r *IssuedDocumentRow) domain.IssuedDocument {
	amount := decimal.Zero
	if r.Amount != nil {
		amount = decimal.NewFromBigRat(r.Amount, numericScale)
	}
	return domain.IssuedDocument{
		IssuedID:      r.IssuedID,
		DocumentID:    r.DocumentID.StringVal,
		DocumentType:  domain.DocumentType(r.DocumentType),
		Description:   r.Description,
		Client:        r.Client,
		Amount:        amount,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		Date:          r.IssuedOn,
		Link:          r.Link.StringVal,
		LinkKind:      r.LinkKind,
		EntryID:       r.EntryID.StringVal,
		Reconciled:    r.Reconciled,
		Stage:         r.Stage,
		EmailJobID:    r.EmailJobID.StringVal,
		CreatedAt:     r.CreatedTS,
	}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
