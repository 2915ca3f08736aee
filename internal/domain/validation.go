package domain

import (
	"errors"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ErrValidation is the sentinel matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a local precondition failure. Message is the
// user-facing Hebrew text for the first failing rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Parse validates the form and converts it into a TransactionInput for the
// given document type. Rules are checked in form order and the first failure
// is returned.
func (f Form) Parse(docType DocumentType) (TransactionInput, error) {
	if strings.TrimSpace(f.Description) == "" {
		return TransactionInput{}, invalid("description", "יש להזין פרטי הכנסה")
	}
	if f.Client == "" {
		return TransactionInput{}, invalid("client", "יש לבחור לקוח")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil || !amount.IsPositive() {
		return TransactionInput{}, invalid("amount", "יש להזין סכום תקין")
	}

	if f.PaymentMethod == "" {
		return TransactionInput{}, invalid("payment_method", "יש לבחור אמצעי תשלום")
	}
	if f.Date == "" {
		return TransactionInput{}, invalid("date", "יש להזין תאריך")
	}
	date, err := civil.ParseDate(f.Date)
	if err != nil {
		return TransactionInput{}, invalid("date", "יש להזין תאריך")
	}

	method := PaymentMethod(f.PaymentMethod)
	if method == PaymentMethodApp && f.PaymentApp == "" {
		return TransactionInput{}, invalid("payment_app", "יש לבחור אפליקציה")
	}

	return TransactionInput{
		Description:   f.Description,
		Client:        f.Client,
		Amount:        amount,
		PaymentMethod: method,
		PaymentApp:    PaymentApp(f.PaymentApp),
		Date:          date,
		DocumentType:  docType,
		SendEmail:     f.SendEmail,
	}, nil
}

// WithDefaultDate fills an empty date with today.
func (f Form) WithDefaultDate(today civil.Date) Form {
	if f.Date == "" {
		f.Date = today.String()
	}
	return f
}
