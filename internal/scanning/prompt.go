package scanning

import (
	"fmt"
	"strings"

	"github.com/zombor/receipt-scan/internal/currency"
)

// Category is one entry of the fixed expense taxonomy
type Category struct {
	Number string
	Name   string
}

// Categories is the strict taxonomy the model must classify into
var Categories = []Category{
	{"1", "Tradeshow & Events- (Event name)"},
	{"2", "Advertisement"},
	{"3", "Production of Video"},
	{"4", "Production of Marketing Materials (must do items e.g. Brochure / Envelope / Plaques / 授权牌)"},
	{"5", "Production of Giveaways (optional items)"},
	{"6", "Design Fee of Giveaways / Brochure / Ad"},
	{"7", "Photo taking of product/ staff"},
	{"8", "Translation of PR & Brochure"},
	{"9-1", "Website (www.gdc-tech.com, Cine-Union)"},
	{"9-2", "Website (www.espedeo.com)"},
	{"10", "Social Media/ Online Tool (nearly must subscribe items)"},
	{"11", "Google Adwords (change budget flexibly based on ad performance)"},
	{"12", "Press Relationship: Aiwei (asking 3rd party to write for GDC e.g. Aiwei)"},
	{"13", "Membership (EU)"},
	{"14", "Membership (CN)"},
	{"15", "Ad hoc expenses/Miscellaneous/ Award (HK)"},
	{"16", "Ad hoc expenses/Miscellaneous/ Award (CN)"},
	{"17", "Ad hoc expenses/Miscellaneous/ Award (EU)"},
	{"18", "DTS:X for IAB +DTS Surround Cinema Marketing (exclude plaque)"},
	{"19", "Marketing Analysis"},
	{"20", "GoGoCinema Marketing"},
}

// PlaqueCategory is forced whenever a plaque is mentioned
const PlaqueCategory = "4"

// PlaqueTerms trigger the plaque override
var PlaqueTerms = []string{"Plaque", "授权牌", "Tricorne Plaque"}

// Instruction builds the classification instruction sent with every file
func Instruction(filename string) string {
	var b strings.Builder

	b.WriteString("TASK: Financial OCR & Classification.\n\n")

	b.WriteString("CATEGORIES (STRICT):\n")
	for _, c := range Categories {
		fmt.Fprintf(&b, "%s | %s\n", c.Number, c.Name)
	}
	b.WriteString("\n")

	quoted := make([]string, len(PlaqueTerms))
	for i, t := range PlaqueTerms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	fmt.Fprintf(&b, "PLAQUE RULE: Any mention of %s MUST be Cat %s.\n\n", strings.Join(quoted, ", "), PlaqueCategory)

	b.WriteString("EXCHANGE RATES:\n")
	b.WriteString(currency.RateTable())
	b.WriteString("\n")
	fmt.Fprintf(&b, "RATIO CHECK: HKD:CNY must be exactly %s:1.\n\n", currency.HKDPerCNY.String())

	always := make([]string, len(currency.AlwaysFilled))
	for i, c := range currency.AlwaysFilled {
		always[i] = string(c)
	}
	b.WriteString("CURRENCY FILING:\n")
	fmt.Fprintf(&b, "- ALWAYS fill %s. Use 0 if amount is missing.\n", strings.Join(always, ", "))
	b.WriteString("- Fill other columns ONLY if they match the original invoice currency. Otherwise leave null.\n\n")

	b.WriteString("FILE CONTEXT:\n")
	fmt.Fprintf(&b, "The file name is %q. Extract relevant data points from the provided document contents.\n", filename)
	b.WriteString("Ensure the date/month extracted is based on the INVOICE date, not the current system date unless no date is found.\n")

	return b.String()
}
