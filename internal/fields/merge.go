package fields

import "contract-backend/internal/entities"

// Merge assigns recognizer output to the entity-backed sub-fields.
// Non-empty sets replace whatever was there; empty sets leave the field untouched.
func Merge(f *Fields, b entities.Bundle) {
	if f == nil {
		return
	}
	if len(b.Persons) > 0 {
		f.PartyIdentification.Persons = append([]string(nil), b.Persons...)
	}
	if len(b.Money) > 0 {
		f.FinancialDetails.MoneyEntities = append([]string(nil), b.Money...)
	}
	if len(b.Dates) > 0 {
		f.FinancialDetails.Dates = append([]string(nil), b.Dates...)
	}
}
