package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the payment method chosen on the form. The values are the
// Hebrew option labels, which are also the select option names in the Notion ledger.
type PaymentMethod string

const (
	PaymentMethodTransfer PaymentMethod = "העברה"
	PaymentMethodCash     PaymentMethod = "מזומן"
	PaymentMethodCheck    PaymentMethod = "צ׳ק"
	PaymentMethodApp      PaymentMethod = "אפליקציית תשלום"
)

// PaymentApp is the payment application used when PaymentMethod is PaymentMethodApp.
type PaymentApp string

const (
	PaymentAppBit    PaymentApp = "ביט"
	PaymentAppPayBox PaymentApp = "פיי-בוקס"
)

// DocumentType is the kind of billing document being issued.
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeReceipt DocumentType = "receipt"
)

// Label returns the Hebrew name of the document kind as shown to the user.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeInvoice:
		return "חשבונית"
	case DocumentTypeReceipt:
		return "קבלה"
	default:
		return string(t)
	}
}

// TransactionInput is one validated form submission. It is built once per
// orchestration call and not modified afterwards.
type TransactionInput struct {
	Description   string
	Client        string
	Amount        decimal.Decimal
	PaymentMethod PaymentMethod
	PaymentApp    PaymentApp
	Date          civil.Date
	DocumentType  DocumentType
	SendEmail     bool
}

// AmountFloat returns the amount as a float64 for provider payloads.
func (in TransactionInput) AmountFloat() float64 {
	return in.Amount.InexactFloat64()
}

// Form holds the raw form fields as typed by the user.
type Form struct {
	Description   string `json:"description"`
	Client        string `json:"client"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	PaymentApp    string `json:"payment_app"`
	Date          string `json:"date"`
	SendEmail     bool   `json:"send_email"`
}
