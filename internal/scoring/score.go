// Package scoring computes the completeness score of extracted contract fields.
package scoring

import "contract-backend/internal/fields"

// MaxScore is the ceiling of Score.
const MaxScore = 100

type weight struct {
	category string
	present  func(fields.Fields) bool
	points   int
}

// weights is the presence rubric. A sub-field earns its points only when non-empty.
var weights = []weight{
	{fields.CategoryFinancialDetails, func(f fields.Fields) bool { return len(f.FinancialDetails.Amounts) > 0 }, 15},
	{fields.CategoryFinancialDetails, func(f fields.Fields) bool { return len(f.FinancialDetails.LineItems) > 0 }, 10},
	{fields.CategoryFinancialDetails, func(f fields.Fields) bool { return len(f.FinancialDetails.MoneyEntities) > 0 }, 5},

	{fields.CategoryPartyIdentification, func(f fields.Fields) bool { return len(f.PartyIdentification.Persons) > 0 }, 10},
	{fields.CategoryPartyIdentification, func(f fields.Fields) bool { return len(f.PartyIdentification.Parties) > 0 }, 8},
	{fields.CategoryPartyIdentification, func(f fields.Fields) bool { return len(f.PartyIdentification.RegistrationDetails) > 0 }, 4},
	{fields.CategoryPartyIdentification, func(f fields.Fields) bool { return len(f.PartyIdentification.Signatories) > 0 }, 3},

	{fields.CategoryPaymentStructure, func(f fields.Fields) bool { return len(f.PaymentStructure.Terms) > 0 }, 12},
	{fields.CategoryPaymentStructure, func(f fields.Fields) bool { return len(f.PaymentStructure.Schedules) > 0 }, 8},

	{fields.CategoryServiceLevelAgreements, func(f fields.Fields) bool { return len(f.ServiceLevelAgreements.SLATerms) > 0 }, 15},

	{fields.CategoryAccountInformation, func(f fields.Fields) bool { return len(f.AccountInformation.Emails) > 0 }, 6},
	{fields.CategoryAccountInformation, func(f fields.Fields) bool { return len(f.AccountInformation.AccountNumbers) > 0 }, 4},
}

// Score returns the presence-weighted completeness of f, clamped to [0, MaxScore].
func Score(f fields.Fields) int {
	total := 0
	for _, w := range weights {
		if w.present(f) {
			total += w.points
		}
	}
	return clamp(total)
}

// Breakdown returns the points earned per category. Every category is present,
// including revenue_classification which carries no weight.
func Breakdown(f fields.Fields) map[string]int {
	out := make(map[string]int, len(fields.Categories))
	for _, name := range fields.Categories {
		out[name] = 0
	}
	for _, w := range weights {
		if w.present(f) {
			out[w.category] += w.points
		}
	}
	return out
}

// CategoryMax returns the maximum points each category can earn.
func CategoryMax() map[string]int {
	out := make(map[string]int, len(fields.Categories))
	for _, name := range fields.Categories {
		out[name] = 0
	}
	for _, w := range weights {
		out[w.category] += w.points
	}
	return out
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
