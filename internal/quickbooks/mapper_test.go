package quickbooks

import (
	"strings"
	"testing"
)

func TestToQuickBooksMapsLineItems(t *testing.T) {
	doc := Document{
		CustomerName: "Jane Doe",
		Date:         "2025-06-01",
		Number:       "INV-1042",
		Notes:        "gate code 4417",
		TaxAmount:    12.50,
		LineItems: []LineItem{
			{Description: "Water heater repair", Quantity: 1, UnitPrice: 450, Amount: 450},
			{Description: "Parts", Quantity: 2, UnitPrice: 25, Amount: 50},
		},
	}

	out := toQuickBooks(doc)
	if len(out.Line) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(out.Line))
	}
	if out.Line[0].DetailType != "SalesItemLineDetail" {
		t.Errorf("wrong detail type: %q", out.Line[0].DetailType)
	}
	if out.Line[0].Amount != 450 || out.Line[0].SalesItemLineDetail.UnitPrice != 450 {
		t.Errorf("line amounts not carried: %+v", out.Line[0])
	}
	if out.CustomerRef.Name != "Jane Doe" {
		t.Errorf("customer not mapped: %q", out.CustomerRef.Name)
	}
	if out.TxnTaxDetail == nil || out.TxnTaxDetail.TotalTax != 12.50 {
		t.Errorf("tax not mapped: %+v", out.TxnTaxDetail)
	}
	if out.DocNumber != "INV-1042" || out.TxnDate != "2025-06-01" || out.PrivateNote != "gate code 4417" {
		t.Errorf("header fields not mapped: %+v", out)
	}
}

func TestToQuickBooksTruncatesDescriptionsTo100Chars(t *testing.T) {
	long := strings.Repeat("x", 150)
	doc := Document{
		CustomerName: "Jane Doe",
		LineItems:    []LineItem{{Description: long, Amount: 10}},
	}

	out := toQuickBooks(doc)
	if got := len(out.Line[0].Description); got != 100 {
		t.Fatalf("expected description truncated to 100 chars, got %d", got)
	}

	short := "drain cleaning"
	doc.LineItems[0].Description = short
	out = toQuickBooks(doc)
	if out.Line[0].Description != short {
		t.Errorf("short description must pass through unchanged, got %q", out.Line[0].Description)
	}
}

func TestToQuickBooksZeroTaxOmitsDetail(t *testing.T) {
	doc := Document{
		CustomerName: "Jane Doe",
		LineItems:    []LineItem{{Description: "service call", Amount: 95}},
	}
	out := toQuickBooks(doc)
	if out.TxnTaxDetail != nil {
		t.Errorf("zero tax should omit TxnTaxDetail, got %+v", out.TxnTaxDetail)
	}
}
