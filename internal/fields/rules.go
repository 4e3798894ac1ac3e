package fields

import "regexp"

// Rule tables are compiled once at package init and shared read-only.
// A rule with a capture group contributes group 1; a rule without one contributes the whole match.
// Order matters: party rules are first-match-wins, every other group is aggregated in order.

const (
	maxSignatories = 5
	maxEmails      = 10
	maxAmounts     = 20
	maxLineItems   = 10
	maxLineItemLen = 100
	maxSchedules   = 5
	maxSLATerms    = 10
)

var partyRules = compile(
	`(?is)between\s+(.*?)\s+and\s+(.*?)(?:\s|,)`,
	`(?is)Party\s*[1A]:\s*(.*?)(?:\n|Party)`,
	`(?is)Customer:\s*(.*?)(?:\n|Vendor)`,
	`(?is)Client:\s*(.*?)(?:\n|Provider)`,
)

var registrationRules = compile(
	`(?i)Registration\s*(?:No\.?|Number)[:\s]*([\w-]+)`,
	`(?i)Incorporation\s*(?:No\.?|Number)[:\s]*([\w-]+)`,
	`(?i)Company\s*(?:No\.?|Number)[:\s]*([\w-]+)`,
)

var signatoryRules = compile(
	`(?i)Signed\s+by[:\s]+(.*?)(?:\n|\bas\b|\bon\b)`,
	`(?i)Authorized\s+(?:by|signatory)[:\s]+(.*?)(?:\n|,)`,
	`(?i)(?:CEO|President|Director|Manager)[:\s]+(.*?)(?:\n|,)`,
)

var emailRule = regexp.MustCompile(`[\w.-]+@[\w.-]+`)

var accountRules = compile(
	`(?i)Account\s*(?:No\.?|Number)[:\s]*([\w-]+)`,
	`(?i)Customer\s*(?:ID|Number)[:\s]*([\w-]+)`,
	`(?i)Reference\s*(?:No\.?|Number)[:\s]*([\w-]+)`,
)

var amountRules = compile(
	`(?i)\$\s?\d+[\d,]*(?:\.\d{2})?`,
	`(?i)USD\s?\d+[\d,]*(?:\.\d{2})?`,
	`(?i)\d+[\d,]*(?:\.\d{2})?\s?(?:dollars?|USD|\$)`,
)

var lineItemRules = compile(
	`(?is)(?:Item|Service|Product)[:\s]+(.*?)(?:\n|Price|Cost)`,
	`(?is)Description[:\s]+(.*?)(?:\n|Quantity|Price)`,
)

var termRule = regexp.MustCompile(`(?i)Net\s*\d+`)

var scheduleRules = compile(
	`(?i)(?:due|payable)\s+(?:on|within)\s+(.*?)(?:\n|,|\.|;)`,
	`(?i)payment\s+schedule[:\s]+(.*?)(?:\n|\.)`,
	`(?i)(?:monthly|quarterly|annually|yearly)`,
)

var recurringRule = regexp.MustCompile(`(?i)recurring|subscription|monthly|quarterly|annual|yearly|renewal|auto-renew`)

var billingCycleRules = compile(
	`(?i)(?:billed|billing)\s+(?:monthly|quarterly|annually|yearly)`,
	`(?i)(?:every|each)\s+(?:month|quarter|year)`,
)

var slaRules = compile(
	`(?i)service level agreement|SLA`,
	`(?i)uptime[:\s]+(\d+(?:\.\d+)?%?)`,
	`(?i)availability[:\s]+(\d+(?:\.\d+)?%?)`,
	`(?i)penalty|liquidated damages`,
	`(?i)performance metrics?`,
	`(?i)support.*(?:24/7|business hours)`,
	`(?i)response time[:\s]+(.*?)(?:\n|\.)`,
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
