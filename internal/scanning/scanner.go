package scanning

import (
	"context"

	"github.com/google/uuid"

	"github.com/zombor/receipt-scan/internal/currency"
)

// ReceiptData is the expense record extracted from one file
type ReceiptData struct {
	ID               string   `json:"id"`
	Entity           string   `json:"entity"`
	PaidBy           string   `json:"paidBy"`
	Month            string   `json:"month"` // YYYYMM
	Supplier         string   `json:"supplier"`
	Description      string   `json:"description"`
	CatNumber        string   `json:"catNumber"`
	Cat              string   `json:"cat"`
	InvoiceNo        string   `json:"invoiceNo"`
	OriginalCurrency string   `json:"originalCurrency"`
	USD              *float64 `json:"usd,omitempty"`
	HKD              *float64 `json:"hkd,omitempty"`
	CNY              *float64 `json:"cny,omitempty"`
	INR              *float64 `json:"inr,omitempty"`
	THB              *float64 `json:"thb,omitempty"`
	GBP              *float64 `json:"gbp,omitempty"`
	SGD              *float64 `json:"sgd,omitempty"`
	EUR              *float64 `json:"eur,omitempty"`
	AUD              *float64 `json:"aud,omitempty"`
	PIC              string   `json:"pic"`
	Remarks          string   `json:"remarks"`
}

// Amount returns the amount held for c, or nil when the field is blank
func (r *ReceiptData) Amount(c currency.Code) *float64 {
	if p := r.amountField(c); p != nil {
		return *p
	}
	return nil
}

func (r *ReceiptData) amountField(c currency.Code) **float64 {
	switch c {
	case currency.USD:
		return &r.USD
	case currency.HKD:
		return &r.HKD
	case currency.CNY:
		return &r.CNY
	case currency.INR:
		return &r.INR
	case currency.THB:
		return &r.THB
	case currency.GBP:
		return &r.GBP
	case currency.SGD:
		return &r.SGD
	case currency.EUR:
		return &r.EUR
	case currency.AUD:
		return &r.AUD
	}
	return nil
}

// normalize enforces the currency invariants: always-filled amounts default
// to zero and any other amount survives only in the original currency.
func (r *ReceiptData) normalize() {
	if c, ok := currency.Parse(r.OriginalCurrency); ok {
		r.OriginalCurrency = string(c)
	}
	for _, c := range currency.All {
		field := r.amountField(c)
		switch {
		case c.AlwaysFilled():
			if *field == nil {
				zero := 0.0
				*field = &zero
			}
		case !c.Matches(r.OriginalCurrency):
			*field = nil
		}
	}
}

// Scanner extracts receipt records from files
type Scanner interface {
	// ScanReceipt extracts one record from f
	ScanReceipt(ctx context.Context, f File) (*ReceiptData, error)
	// Close releases the underlying model client
	Close() error
}

// Backend sends one prepared request to a model and returns its raw text
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// IDGenerator generates unique identifiers
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random (version 4) UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}
