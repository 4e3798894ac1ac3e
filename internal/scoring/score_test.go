package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"contract-backend/internal/fields"
)

func fullFields() fields.Fields {
	one := []string{"x"}
	return fields.Fields{
		PartyIdentification: fields.PartyIdentification{
			Parties: one, RegistrationDetails: one, Signatories: one, Persons: one,
		},
		AccountInformation: fields.AccountInformation{Emails: one, AccountNumbers: one},
		FinancialDetails: fields.FinancialDetails{
			Amounts: one, LineItems: one, MoneyEntities: one, Dates: one,
		},
		PaymentStructure:       fields.PaymentStructure{Terms: one, Schedules: one},
		RevenueClassification:  fields.RevenueClassification{Recurring: true, Indicators: one},
		ServiceLevelAgreements: fields.ServiceLevelAgreements{SLATerms: one},
	}
}

func TestScoreEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0, Score(fields.Fields{}))
}

func TestScoreFullIsCapped(t *testing.T) {
	assert.Equal(t, MaxScore, Score(fullFields()))
}

func TestScoreIsPresenceBased(t *testing.T) {
	f := fields.Fields{}
	f.FinancialDetails.Amounts = []string{"$1", "$2", "$3"}
	f.PaymentStructure.Terms = []string{"Net 30"}
	assert.Equal(t, 15+12, Score(f))

	f.FinancialDetails.Amounts = []string{"$1"}
	assert.Equal(t, 15+12, Score(f))
}

func TestRecurringCarriesNoWeight(t *testing.T) {
	f := fields.Fields{}
	f.RevenueClassification.Recurring = true
	f.RevenueClassification.Indicators = []string{"monthly"}
	assert.Equal(t, 0, Score(f))
}

func TestBreakdownMatchesCategoryMax(t *testing.T) {
	got := Breakdown(fullFields())
	assert.Equal(t, CategoryMax(), got)
	assert.Equal(t, map[string]int{
		fields.CategoryFinancialDetails:       30,
		fields.CategoryPartyIdentification:    25,
		fields.CategoryPaymentStructure:       20,
		fields.CategoryServiceLevelAgreements: 15,
		fields.CategoryAccountInformation:     10,
		fields.CategoryRevenueClassification:  0,
	}, got)
}

func TestBreakdownSumsToScore(t *testing.T) {
	f := fields.Extract("Customer: Acme Corp and Vendor: Globex Inc. Account Number: AX-123. Amount due: $5,000.00. Net 30. Billed monthly. SLA uptime: 99.9%. Contact: ops@acme.com")
	sum := 0
	for _, v := range Breakdown(f) {
		sum += v
	}
	assert.Equal(t, Score(f), sum)
	assert.Greater(t, Score(f), 0)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(-5))
	assert.Equal(t, 100, clamp(140))
	assert.Equal(t, 42, clamp(42))
}
