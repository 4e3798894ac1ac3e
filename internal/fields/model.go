package fields

// Category names as they appear in stored and served records.
const (
	CategoryPartyIdentification    = "party_identification"
	CategoryAccountInformation     = "account_information"
	CategoryFinancialDetails       = "financial_details"
	CategoryPaymentStructure       = "payment_structure"
	CategoryRevenueClassification  = "revenue_classification"
	CategoryServiceLevelAgreements = "service_level_agreements"
)

// Categories lists the six category names in display order.
var Categories = []string{
	CategoryPartyIdentification,
	CategoryAccountInformation,
	CategoryFinancialDetails,
	CategoryPaymentStructure,
	CategoryRevenueClassification,
	CategoryServiceLevelAgreements,
}

// PartyIdentification groups who the contract is between.
type PartyIdentification struct {
	Parties             []string `json:"parties,omitempty"`
	RegistrationDetails []string `json:"registration_details,omitempty"`
	Signatories         []string `json:"signatories,omitempty"`
	Persons             []string `json:"persons,omitempty"`
}

// AccountInformation groups contact and account identifiers.
type AccountInformation struct {
	Emails         []string `json:"emails,omitempty"`
	AccountNumbers []string `json:"account_numbers,omitempty"`
}

// FinancialDetails groups money mentions and billable items.
type FinancialDetails struct {
	Amounts       []string `json:"amounts,omitempty"`
	LineItems     []string `json:"line_items,omitempty"`
	MoneyEntities []string `json:"money_entities,omitempty"`
	Dates         []string `json:"dates,omitempty"`
}

// PaymentStructure groups payment terms and schedules.
type PaymentStructure struct {
	Terms     []string `json:"terms,omitempty"`
	Schedules []string `json:"schedules,omitempty"`
}

// RevenueClassification reports recurring-revenue signals.
// Recurring is always emitted; Indicators only when Recurring is true.
type RevenueClassification struct {
	Recurring     bool     `json:"recurring"`
	Indicators    []string `json:"indicators,omitempty"`
	BillingCycles []string `json:"billing_cycles,omitempty"`
}

// ServiceLevelAgreements groups service-level terms.
type ServiceLevelAgreements struct {
	SLATerms []string `json:"sla_terms,omitempty"`
}

// Fields is the full set of extracted categories for one run.
// Every category is a value, so all six are present in any encoding.
type Fields struct {
	PartyIdentification    PartyIdentification    `json:"party_identification"`
	AccountInformation     AccountInformation     `json:"account_information"`
	FinancialDetails       FinancialDetails       `json:"financial_details"`
	PaymentStructure       PaymentStructure       `json:"payment_structure"`
	RevenueClassification  RevenueClassification  `json:"revenue_classification"`
	ServiceLevelAgreements ServiceLevelAgreements `json:"service_level_agreements"`
}
