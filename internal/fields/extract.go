package fields

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Extract applies every category's rule table to text.
// It is deterministic: identical input yields identical output, including order.
func Extract(text string) Fields {
	return Fields{
		PartyIdentification:    extractParties(text),
		AccountInformation:     extractAccounts(text),
		FinancialDetails:       extractFinancials(text),
		PaymentStructure:       extractPayments(text),
		RevenueClassification:  extractRevenue(text),
		ServiceLevelAgreements: extractSLA(text),
	}
}

func extractParties(text string) PartyIdentification {
	var out PartyIdentification
	out.Parties = firstMatch(partyRules, text)
	out.RegistrationDetails = unique(aggregate(registrationRules, text))
	out.Signatories = capList(nonEmpty(trimAll(aggregate(signatoryRules, text))), maxSignatories)
	return out
}

func extractAccounts(text string) AccountInformation {
	emails := findAll(emailRule, text)
	for i, e := range emails {
		emails[i] = strings.TrimRight(e, ".")
	}
	return AccountInformation{
		Emails:         capList(unique(emails), maxEmails),
		AccountNumbers: unique(aggregate(accountRules, text)),
	}
}

func extractFinancials(text string) FinancialDetails {
	items := capList(aggregate(lineItemRules, text), maxLineItems)
	for i, item := range items {
		items[i] = truncate(strings.TrimSpace(item), maxLineItemLen)
	}
	return FinancialDetails{
		Amounts:   capList(unique(aggregate(amountRules, text)), maxAmounts),
		LineItems: nonEmpty(items),
	}
}

func extractPayments(text string) PaymentStructure {
	return PaymentStructure{
		Terms:     unique(findAll(termRule, text)),
		Schedules: nonEmpty(trimAll(capList(aggregate(scheduleRules, text), maxSchedules))),
	}
}

func extractRevenue(text string) RevenueClassification {
	var out RevenueClassification
	if indicators := unique(findAll(recurringRule, text)); len(indicators) > 0 {
		out.Recurring = true
		out.Indicators = indicators
	}
	out.BillingCycles = unique(aggregate(billingCycleRules, text))
	return out
}

func extractSLA(text string) ServiceLevelAgreements {
	return ServiceLevelAgreements{
		SLATerms: capList(unique(aggregate(slaRules, text)), maxSLATerms),
	}
}

// firstMatch returns the captures of the first rule that matches at all.
// A rule with two or more groups yields the groups of its first match.
func firstMatch(rules []*regexp.Regexp, text string) []string {
	for _, re := range rules {
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		var out []string
		if re.NumSubexp() > 1 {
			out = append(out, matches[0][1:]...)
		} else {
			for _, m := range matches {
				out = append(out, capture(m))
			}
		}
		return nonEmpty(trimAll(out))
	}
	return nil
}

func aggregate(rules []*regexp.Regexp, text string) []string {
	var out []string
	for _, re := range rules {
		out = append(out, findAll(re, text)...)
	}
	return out
}

func findAll(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if v := capture(m); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func capture(m []string) string {
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}

// unique drops repeats and keeps first-seen order.
func unique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func capList(in []string, limit int) []string {
	if len(in) > limit {
		return in[:limit]
	}
	return in
}

func trimAll(in []string) []string {
	for i := range in {
		in[i] = strings.TrimSpace(in[i])
	}
	return in
}

func nonEmpty(in []string) []string {
	var out []string
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
