package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Rate is one fixed conversion: 1 From = Value To
type Rate struct {
	From  Code
	To    Code
	Value decimal.Decimal
}

// Rates is the fixed conversion table given to the extraction model.
// HKD and CNY are pinned so that HKD:CNY is exactly 1.1:1.
var Rates = []Rate{
	{From: USD, To: CNY, Value: decimal.RequireFromString("7.0")},
	{From: USD, To: HKD, Value: decimal.RequireFromString("7.7")},
	{From: USD, To: INR, Value: decimal.RequireFromString("78.72")},
	{From: USD, To: SGD, Value: decimal.RequireFromString("1.40")},
	{From: USD, To: THB, Value: decimal.RequireFromString("35.0")},
	{From: EUR, To: CNY, Value: decimal.RequireFromString("8.0")},
	{From: AUD, To: CNY, Value: decimal.RequireFromString("4.8")},
	{From: GBP, To: USD, Value: decimal.RequireFromString("1.27")},
}

// HKDPerCNY is the ratio every converted record must respect
var HKDPerCNY = decimal.RequireFromString("1.1")

// RateTable renders Rates as a bullet list for prompts
func RateTable() string {
	var b strings.Builder
	for _, r := range Rates {
		fmt.Fprintf(&b, "- 1 %s = %s %s", r.From, r.Value.String(), r.To)
		if r.From == USD && r.To == HKD {
			fmt.Fprintf(&b, " (Strict %s HKD = 1 CNY ratio)", HKDPerCNY.String())
		}
		b.WriteString("\n")
	}
	return b.String()
}
