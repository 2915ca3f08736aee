package morning

import (
	"github.com/dvloznov/finance-docs/internal/domain"
)

// Document type codes in Green Invoice numbering.
const (
	DocumentTypeInvoice = 300
	DocumentTypeReceipt = 400
)

// Payment type codes.
const (
	PaymentCash     = 1
	PaymentCheck    = 2
	PaymentTransfer = 4
	PaymentApp      = 10
)

// Payment application codes.
const (
	AppBit    = 1
	AppPayBox = 3
)

// DefaultInvoiceRemark is the bank-transfer remittance note printed on invoices.
const DefaultInvoiceRemark = "התשלום יתבצע בהעברה בנקאית. פרטי החשבון מופיעים במסמך, נא לציין את מספר המסמך באסמכתא."

// DocumentPayload is the body of POST /documents.
type DocumentPayload struct {
	Description  string        `json:"description"`
	Type         int           `json:"type"`
	VatType      int           `json:"vatType"`
	Lang         string        `json:"lang"`
	Currency     string        `json:"currency"`
	Client       ClientRef     `json:"client"`
	Rounding     bool          `json:"rounding"`
	Income       []IncomeLine  `json:"income"`
	Payment      []PaymentLine `json:"payment"`
	Remarks      string        `json:"remarks,omitempty"`
	EmailContent string        `json:"emailContent,omitempty"`
}

// ClientRef identifies the client by name. Add=true makes the provider create
// the client on first use.
type ClientRef struct {
	Name string `json:"name"`
	Add  bool   `json:"add"`
	Self bool   `json:"self"`
}

type IncomeLine struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	VatType     int     `json:"vatType"`
}

// PaymentLine carries AppType as any because the provider receives either a
// numeric app code, an empty string for an unknown app, or null.
type PaymentLine struct {
	Type     int     `json:"type"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Date     string  `json:"date"`
	AppType  any     `json:"appType"`
}

// MapPaymentMethod returns the provider payment code. Unknown methods map to
// a bank transfer.
func MapPaymentMethod(m domain.PaymentMethod) int {
	switch m {
	case domain.PaymentMethodTransfer:
		return PaymentTransfer
	case domain.PaymentMethodApp:
		return PaymentApp
	case domain.PaymentMethodCash:
		return PaymentCash
	case domain.PaymentMethodCheck:
		return PaymentCheck
	default:
		return PaymentTransfer
	}
}

// MapPaymentApp returns the provider app code, or "" for an unrecognized app.
func MapPaymentApp(a domain.PaymentApp) any {
	switch a {
	case domain.PaymentAppBit:
		return AppBit
	case domain.PaymentAppPayBox:
		return AppPayBox
	default:
		return ""
	}
}

// BuildDocumentPayload maps a transaction into a Green Invoice document.
// remark is only used for invoices.
func BuildDocumentPayload(in domain.TransactionInput, typeCode int, remark string) DocumentPayload {
	amount := in.AmountFloat()

	var appType any
	if in.PaymentMethod == domain.PaymentMethodApp {
		appType = MapPaymentApp(in.PaymentApp)
	}

	p := DocumentPayload{
		Description: in.Description,
		Type:        typeCode,
		VatType:     0,
		Lang:        "he",
		Currency:    "ILS",
		Client: ClientRef{
			Name: in.Client,
			Add:  true,
			Self: false,
		},
		Income: []IncomeLine{{
			Description: in.Description,
			Quantity:    1,
			Price:       amount,
			Currency:    "ILS",
			VatType:     0,
		}},
		Payment: []PaymentLine{{
			Type:     MapPaymentMethod(in.PaymentMethod),
			Price:    amount,
			Currency: "ILS",
			Date:     in.Date.String(),
			AppType:  appType,
		}},
	}

	if typeCode == DocumentTypeInvoice {
		if remark == "" {
			remark = DefaultInvoiceRemark
		}
		p.Remarks = remark
		if in.SendEmail {
			p.EmailContent = remark
		}
	}

	return p
}

// TypeCode returns the provider document type code for a document kind.
func TypeCode(t domain.DocumentType) int {
	if t == domain.DocumentTypeInvoice {
		return DocumentTypeInvoice
	}
	return DocumentTypeReceipt
}
