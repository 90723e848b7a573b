package purchase

import (
	"github.com/shopspring/decimal"
)

// Benefit codes a product may offer.
const (
	BenefitMSI3      = "MSI_3"
	BenefitMSI6      = "MSI_6"
	BenefitMSI12     = "MSI_12"
	BenefitCashback5 = "CASHBACK_5"
	BenefitPoints2X  = "POINTS_2X"
)

// BenefitOption is the computed effect of one benefit on a price.
// Only the fields relevant to Type are set.
type BenefitOption struct {
	Type           string           `json:"type"`
	Months         int              `json:"months,omitempty"`
	MonthlyPayment *decimal.Decimal `json:"monthly_payment,omitempty"`
	Total          *decimal.Decimal `json:"total,omitempty"`
	Interest       *decimal.Decimal `json:"interest,omitempty"`
	Percentage     int              `json:"percentage,omitempty"`
	CashbackAmount *decimal.Decimal `json:"cashback_amount,omitempty"`
	FinalPrice     *decimal.Decimal `json:"final_price,omitempty"`
	Multiplier     int              `json:"multiplier,omitempty"`
	PointsEarned   int64            `json:"points_earned,omitempty"`
}

var msiMonths = map[string]int{
	BenefitMSI3:  3,
	BenefitMSI6:  6,
	BenefitMSI12: 12,
}

// CalculateBenefit computes the option for a benefit code. Unknown codes return false.
func CalculateBenefit(price decimal.Decimal, benefit string) (BenefitOption, bool) {
	if months, ok := msiMonths[benefit]; ok {
		monthly := price.Div(decimal.NewFromInt(int64(months))).Round(2)
		total := price
		interest := decimal.Zero
		return BenefitOption{
			Type:           "MSI",
			Months:         months,
			MonthlyPayment: &monthly,
			Total:          &total,
			Interest:       &interest,
		}, true
	}
	switch benefit {
	case BenefitCashback5:
		cashback := price.Mul(decimal.RequireFromString("0.05")).Round(2)
		final := price.Mul(decimal.RequireFromString("0.95")).Round(2)
		return BenefitOption{
			Type:           "CASHBACK",
			Percentage:     5,
			CashbackAmount: &cashback,
			FinalPrice:     &final,
		}, true
	case BenefitPoints2X:
		return BenefitOption{
			Type:         "POINTS",
			Multiplier:   2,
			PointsEarned: price.Mul(decimal.NewFromInt(2)).IntPart(),
		}, true
	}
	return BenefitOption{}, false
}

// BenefitOptions computes options for every known benefit the product offers, in order.
func (p *Product) BenefitOptions() []BenefitOption {
	out := make([]BenefitOption, 0, len(p.Benefits))
	for _, b := range p.Benefits {
		if opt, ok := CalculateBenefit(p.Price, b); ok {
			out = append(out, opt)
		}
	}
	return out
}
