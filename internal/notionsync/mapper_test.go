package notionsync

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-docs/internal/domain"
	"github.com/jomei/notionapi"
)

func TestEntryProperties_Invoice(t *testing.T) {
	props := EntryProperties(sampleInput(domain.DocumentTypeInvoice))

	if got := titleText(props[PropIncome]); got != "Consulting" {
		t.Errorf("title = %q, want Consulting", got)
	}
	if got := numberValue(props[PropAmount]); got != 99.9 {
		t.Errorf("amount = %v, want 99.9", got)
	}
	if got := selectName(props[PropPaymentMethod]); got != string(domain.PaymentMethodCash) {
		t.Errorf("payment method = %q", got)
	}
	if !checkboxValue(props[PropInvoice]) {
		t.Error("invoice flag not set")
	}
	if dateValue(props[PropInvoiceSentDate]) == nil {
		t.Error("invoice sent date not set")
	}
	if _, ok := props[PropReceipt]; ok {
		t.Error("receipt flag must not be set on an invoice entry")
	}
	if _, ok := props[PropReceiptDate]; ok {
		t.Error("receipt date must not be set on an invoice entry")
	}
}

func TestEntryProperties_Receipt(t *testing.T) {
	props := EntryProperties(sampleInput(domain.DocumentTypeReceipt))

	if !checkboxValue(props[PropReceipt]) {
		t.Error("receipt flag not set")
	}
	got := dateValue(props[PropReceiptDate])
	if got == nil {
		t.Fatal("receipt date not set")
	}
	if civil.DateOf(*got) != (civil.Date{Year: 2025, Month: 5, Day: 1}) {
		t.Errorf("receipt date = %v", got)
	}
	if _, ok := props[PropInvoice]; ok {
		t.Error("invoice flag must not be set on a receipt entry")
	}
}

func TestReceiptPatch(t *testing.T) {
	patch := ReceiptPatch(civil.Date{Year: 2025, Month: 6, Day: 15})

	if len(patch) != 2 {
		t.Fatalf("patch has %d properties, want 2", len(patch))
	}
	if !checkboxValue(patch[PropReceipt]) {
		t.Error("receipt flag not set")
	}
	if d := dateValue(patch[PropReceiptDate]); d == nil || d.Day() != 15 {
		t.Errorf("receipt date = %v", d)
	}
}

func TestEntryFromPage_DecodedProperties(t *testing.T) {
	start := notionapi.Date(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	page := notionapi.Page{
		ID: "page-1",
		Properties: notionapi.Properties{
			PropIncome: &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: "Design work"}},
			},
			PropAmount:        &notionapi.NumberProperty{Number: 1200},
			PropClient:        &notionapi.SelectProperty{Select: notionapi.Option{Name: "Acme"}},
			PropPaymentMethod: &notionapi.SelectProperty{Select: notionapi.Option{Name: "ביט"}},
			PropDate:          &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}},
			PropInvoice:       &notionapi.CheckboxProperty{Checkbox: true},
		},
	}

	e := EntryFromPage(page)

	if e.ID != "page-1" || e.Income != "Design work" || e.Amount != 1200 || e.Client != "Acme" {
		t.Errorf("entry = %+v", e)
	}
	if !e.IsInvoice || e.IsReceipt {
		t.Errorf("flags = invoice %v receipt %v", e.IsInvoice, e.IsReceipt)
	}
	if e.Date == nil || e.Date.Month() != time.March {
		t.Errorf("date = %v", e.Date)
	}
	if e.ReceiptDate != nil {
		t.Errorf("receipt date = %v, want nil", e.ReceiptDate)
	}
}

func TestEntryFromPage_WrongTypes(t *testing.T) {
	page := notionapi.Page{
		ID: "page-2",
		Properties: notionapi.Properties{
			PropClient: &notionapi.NumberProperty{Number: 5},
		},
	}

	e := EntryFromPage(page)
	if e.Client != "" || e.Income != "" || e.Date != nil {
		t.Errorf("entry = %+v, want zero fields", e)
	}
}

func TestEntryProperties_DatesAreCalendarDays(t *testing.T) {
	props := EntryProperties(sampleInput(domain.DocumentTypeInvoice))

	body, err := json.Marshal(props)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	got := string(body)
	if !strings.Contains(got, `"date":{"start":"2025-05-01"}`) {
		t.Errorf("date not sent as a calendar day: %s", got)
	}
	if strings.Contains(got, "T00:00:00") {
		t.Errorf("date carries a time of day: %s", got)
	}
}

func TestDateValue_ZeroDay(t *testing.T) {
	if dateValue(DayProperty{}) != nil {
		t.Error("zero day should read as unset")
	}
}
