package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is the placeholder for any payment field the provider omitted.
const NotAvailable = "N/A"

// FailurePayment is the canonical failed-payment record derived from a
// provider object. Optional fields hold NotAvailable, never "".
type FailurePayment struct {
	ID               string `json:"id"`
	AmountMinorUnits int64  `json:"amount"`
	Currency         string `json:"currency"`
	CustomerEmail    string `json:"customer_email"`
	CustomerID       string `json:"customer_id"`
	FailureCode      string `json:"failure_code"`
	FailureMessage   string `json:"failure_message"`
	Description      string `json:"description"`
	SourceType       string `json:"source_type"`
}

// MajorUnits returns the amount divided by 100.
func (p FailurePayment) MajorUnits() decimal.Decimal {
	return decimal.New(p.AmountMinorUnits, -2)
}

// DisplayAmount formats the amount with two decimals, e.g. 4999 -> "49.99".
func (p FailurePayment) DisplayAmount() string {
	return p.MajorUnits().StringFixed(2)
}

// Summary is a one-line human description used in logs and email subjects.
func (p FailurePayment) Summary() string {
	return fmt.Sprintf("%s %s - %s", p.DisplayAmount(), p.Currency, p.CustomerEmail)
}

// NormalizeFailurePayment extracts a FailurePayment from a provider object.
// It accepts charge, payment_intent, invoice and payment_method shapes and
// never fails: anything missing or mistyped falls back to NotAvailable or 0.
func NormalizeFailurePayment(raw map[string]any) FailurePayment {
	amount, ok := intAt(raw, "amount")
	if !ok {
		amount, _ = intAt(raw, "amount_due")
	}

	currency := firstString(raw, []string{"currency"})
	if currency != NotAvailable {
		currency = strings.ToUpper(currency)
	}

	return FailurePayment{
		ID:               firstString(raw, []string{"id"}),
		AmountMinorUnits: amount,
		Currency:         currency,
		CustomerEmail: firstString(raw,
			[]string{"receipt_email"},
			[]string{"billing_details", "email"},
			[]string{"customer_email"},
			[]string{"last_payment_error", "payment_method", "billing_details", "email"},
		),
		CustomerID: customerID(raw),
		FailureCode: firstString(raw,
			[]string{"failure_code"},
			[]string{"last_payment_error", "code"},
		),
		FailureMessage: firstString(raw,
			[]string{"failure_message"},
			[]string{"last_payment_error", "message"},
		),
		Description: firstString(raw, []string{"description"}),
		SourceType: firstString(raw,
			[]string{"payment_method_details", "type"},
			[]string{"source", "object"},
			[]string{"last_payment_error", "payment_method", "type"},
			[]string{"type"},
		),
	}
}

// customerID accepts both the collapsed ("cus_123") and expanded ({"id": ...}) forms.
func customerID(raw map[string]any) string {
	switch c := raw["customer"].(type) {
	case string:
		if c != "" {
			return c
		}
	case map[string]any:
		return firstString(c, []string{"id"})
	}
	return NotAvailable
}

// firstString returns the first non-empty string found at any of paths.
func firstString(raw map[string]any, paths ...[]string) string {
	for _, path := range paths {
		if s, ok := valueAt(raw, path).(string); ok && s != "" {
			return s
		}
	}
	return NotAvailable
}

func intAt(raw map[string]any, key string) (int64, bool) {
	switch n := raw[key].(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func valueAt(raw map[string]any, path []string) any {
	var cur any = raw
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}
