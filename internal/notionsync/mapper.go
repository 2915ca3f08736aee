package notionsync

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/jomei/notionapi"
)

// Property labels of the income ledger database. They are the column names in
// the Notion workspace and must match it exactly.
const (
	PropIncome          = "הכנסה"
	PropAmount          = "סכום"
	PropClient          = "שולם ע״י"
	PropPaymentMethod   = "אמצעי"
	PropDate            = "תאריך"
	PropInvoice         = "חשבונית"
	PropInvoiceSentDate = "חשבונית נשלחה"
	PropReceipt         = "קבלה"
	PropReceiptDate     = "תאריך קבלה"
)

// Entry is one ledger row as read back from Notion.
type Entry struct {
	ID              string
	Income          string
	Amount          float64
	Client          string
	PaymentMethod   string
	Date            *time.Time
	IsInvoice       bool
	IsReceipt       bool
	InvoiceSentDate *time.Time
	ReceiptDate     *time.Time
}

// EntryProperties converts a transaction into ledger page properties. The
// document type decides which flag and date pair is set.
func EntryProperties(in domain.TransactionInput) notionapi.Properties {
	props := notionapi.Properties{
		PropIncome: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: in.Description,
					},
				},
			},
		},
		PropAmount: notionapi.NumberProperty{
			Number: in.AmountFloat(),
		},
		PropClient: notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: in.Client,
			},
		},
		PropPaymentMethod: notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(in.PaymentMethod),
			},
		},
		PropDate: dateProperty(in.Date),
	}

	switch in.DocumentType {
	case domain.DocumentTypeInvoice:
		props[PropInvoice] = notionapi.CheckboxProperty{Checkbox: true}
		props[PropInvoiceSentDate] = dateProperty(in.Date)
	case domain.DocumentTypeReceipt:
		props[PropReceipt] = notionapi.CheckboxProperty{Checkbox: true}
		props[PropReceiptDate] = dateProperty(in.Date)
	}

	return props
}

// ReceiptPatch marks an existing ledger row as receipted on the given date
// without touching its other fields.
func ReceiptPatch(date civil.Date) notionapi.Properties {
	return notionapi.Properties{
		PropReceipt:     notionapi.CheckboxProperty{Checkbox: true},
		PropReceiptDate: dateProperty(date),
	}
}

func dateProperty(d civil.Date) DayProperty {
	return DayProperty{Day: d}
}

// DayProperty is a date property sent as a calendar day (YYYY-MM-DD).
// notionapi.Date always encodes an RFC3339 timestamp, which Notion shows
// with a time of day.
type DayProperty struct {
	Day civil.Date
}

func (p DayProperty) GetID() string { return "" }

func (p DayProperty) GetType() notionapi.PropertyType { return notionapi.PropertyTypeDate }

func (p DayProperty) MarshalJSON() ([]byte, error) {
	type day struct {
		Start civil.Date `json:"start"`
	}
	return json.Marshal(struct {
		Type notionapi.PropertyType `json:"type"`
		Date day                    `json:"date"`
	}{
		Type: notionapi.PropertyTypeDate,
		Date: day{Start: p.Day},
	})
}

// EntryFromPage reads the ledger fields out of a Notion page. Missing or
// differently typed properties are left at their zero value.
func EntryFromPage(page notionapi.Page) Entry {
	props := page.Properties
	return Entry{
		ID:              string(page.ID),
		Income:          titleText(props[PropIncome]),
		Amount:          numberValue(props[PropAmount]),
		Client:          selectName(props[PropClient]),
		PaymentMethod:   selectName(props[PropPaymentMethod]),
		Date:            dateValue(props[PropDate]),
		IsInvoice:       checkboxValue(props[PropInvoice]),
		IsReceipt:       checkboxValue(props[PropReceipt]),
		InvoiceSentDate: dateValue(props[PropInvoiceSentDate]),
		ReceiptDate:     dateValue(props[PropReceiptDate]),
	}
}

// Pages decoded from the API hold pointer properties; pages built locally hold
// values. The helpers accept both.

func titleText(p notionapi.Property) string {
	var rt []notionapi.RichText
	switch v := p.(type) {
	case *notionapi.TitleProperty:
		rt = v.Title
	case notionapi.TitleProperty:
		rt = v.Title
	}
	if len(rt) == 0 {
		return ""
	}
	if rt[0].PlainText != "" {
		return rt[0].PlainText
	}
	if rt[0].Text != nil {
		return rt[0].Text.Content
	}
	return ""
}

func selectName(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.SelectProperty:
		return v.Select.Name
	case notionapi.SelectProperty:
		return v.Select.Name
	}
	return ""
}

func numberValue(p notionapi.Property) float64 {
	switch v := p.(type) {
	case *notionapi.NumberProperty:
		return v.Number
	case notionapi.NumberProperty:
		return v.Number
	}
	return 0
}

func checkboxValue(p notionapi.Property) bool {
	switch v := p.(type) {
	case *notionapi.CheckboxProperty:
		return v.Checkbox
	case notionapi.CheckboxProperty:
		return v.Checkbox
	}
	return false
}

func dateValue(p notionapi.Property) *time.Time {
	var obj *notionapi.DateObject
	switch v := p.(type) {
	case DayProperty:
		if v.Day.IsZero() {
			return nil
		}
		t := v.Day.In(time.UTC)
		return &t
	case *notionapi.DateProperty:
		obj = v.Date
	case notionapi.DateProperty:
		obj = v.Date
	}
	if obj == nil || obj.Start == nil {
		return nil
	}
	t := time.Time(*obj.Start)
	return &t
}
