// Package quickbooks is a thin sync shim that pushes invoices and estimates
// into the QuickBooks Online API. Fields map 1:1 onto QuickBooks' line-item
// schema; no local accounting state is kept.
package quickbooks

// maxDescriptionLen is a hard QuickBooks constraint on line descriptions.
const maxDescriptionLen = 100

// LineItem is one billable line on an invoice or estimate.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// Document is the local shape of an invoice or estimate before sync.
type Document struct {
	LineItems    []LineItem `json:"lineItems"`
	CustomerName string     `json:"customerName"`
	Date         string     `json:"date"`
	Number       string     `json:"number"`
	Notes        string     `json:"notes,omitempty"`
	TaxAmount    float64    `json:"taxAmount"`
}

type qbLine struct {
	DetailType          string        `json:"DetailType"`
	Amount              float64       `json:"Amount"`
	Description         string        `json:"Description,omitempty"`
	SalesItemLineDetail *qbLineDetail `json:"SalesItemLineDetail,omitempty"`
}

type qbLineDetail struct {
	Qty       float64 `json:"Qty,omitempty"`
	UnitPrice float64 `json:"UnitPrice,omitempty"`
}

type qbRef struct {
	Name string `json:"name"`
}

type qbDocument struct {
	Line         []qbLine     `json:"Line"`
	CustomerRef  qbRef        `json:"CustomerRef"`
	TxnDate      string       `json:"TxnDate,omitempty"`
	DocNumber    string       `json:"DocNumber,omitempty"`
	PrivateNote  string       `json:"PrivateNote,omitempty"`
	TxnTaxDetail *qbTaxDetail `json:"TxnTaxDetail,omitempty"`
}

type qbTaxDetail struct {
	TotalTax float64 `json:"TotalTax"`
}

// toQuickBooks maps a local document onto QuickBooks' schema. Descriptions
// are hard-truncated to 100 characters; QuickBooks rejects anything longer.
func toQuickBooks(doc Document) qbDocument {
	lines := make([]qbLine, 0, len(doc.LineItems))
	for _, item := range doc.LineItems {
		lines = append(lines, qbLine{
			DetailType:  "SalesItemLineDetail",
			Amount:      item.Amount,
			Description: truncateDescription(item.Description),
			SalesItemLineDetail: &qbLineDetail{
				Qty:       item.Quantity,
				UnitPrice: item.UnitPrice,
			},
		})
	}
	out := qbDocument{
		Line:        lines,
		CustomerRef: qbRef{Name: doc.CustomerName},
		TxnDate:     doc.Date,
		DocNumber:   doc.Number,
		PrivateNote: doc.Notes,
	}
	if doc.TaxAmount != 0 {
		out.TxnTaxDetail = &qbTaxDetail{TotalTax: doc.TaxAmount}
	}
	return out
}

func truncateDescription(s string) string {
	if len(s) <= maxDescriptionLen {
		return s
	}
	return s[:maxDescriptionLen]
}
