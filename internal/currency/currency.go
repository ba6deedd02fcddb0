package currency

import (
	"strings"
)

// Code is an ISO 4217 currency code recognised on expense records
type Code string

const (
	USD Code = "USD"
	HKD Code = "HKD"
	CNY Code = "CNY"
	INR Code = "INR"
	THB Code = "THB"
	GBP Code = "GBP"
	SGD Code = "SGD"
	EUR Code = "EUR"
	AUD Code = "AUD"
)

// All lists every recognised code in table display order
var All = []Code{USD, HKD, CNY, INR, THB, GBP, SGD, EUR, AUD}

// AlwaysFilled lists the codes every record carries an amount for
var AlwaysFilled = []Code{USD, HKD, CNY}

// Parse normalizes s and reports whether it is a recognised code
func Parse(s string) (Code, bool) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range All {
		if c == known {
			return c, true
		}
	}
	return c, false
}

// AlwaysFilled reports whether records always carry an amount in c
func (c Code) AlwaysFilled() bool {
	for _, af := range AlwaysFilled {
		if c == af {
			return true
		}
	}
	return false
}

// Field returns the record field name holding amounts in c
func (c Code) Field() string {
	return strings.ToLower(string(c))
}

// Label returns the column heading used in review tables
func (c Code) Label() string {
	if c == GBP {
		return "UK Pound"
	}
	return string(c)
}

// Matches compares c against a stored code, ignoring case and padding
func (c Code) Matches(stored string) bool {
	return strings.EqualFold(string(c), strings.TrimSpace(stored))
}

func (c Code) String() string {
	return string(c)
}
