// Package pii detects and masks personally identifiable information in
// records and plain text.
package pii

import (
	"regexp"
	"strings"
)

// Category names a kind of PII. The string values are the keys reported in
// run summaries.
type Category string

const (
	Email      Category = "emails"
	Phone      Category = "phones"
	SSN        Category = "ssns"
	CreditCard Category = "creditCards"
	IPAddress  Category = "ipAddresses"
)

// Rule pairs a pattern with its masking functions.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
	// Mask builds the partial-reveal replacement used on records.
	Mask func(match string) string
	// Redact builds the replacement used by SanitizeText. Nil leaves the
	// category untouched in plain text.
	Redact func(match string) string
}

// PatternSet is an ordered rule table. Rules run in order and each one sees
// the output of the previous ones. Treat it as read-only once built.
type PatternSet []Rule

// Categories lists the categories in rule order.
func (p PatternSet) Categories() []Category {
	out := make([]Category, len(p))
	for i, r := range p {
		out[i] = r.Category
	}
	return out
}

var (
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern      = regexp.MustCompile(`\b(\+\d{1,3}[-.]?)?\(?\d{3}\)?[-.]?\d{3}[-.]?\d{4}\b`)
	ssnPattern        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	creditCardPattern = regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)
	ipPattern         = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	cardSeparators    = strings.NewReplacer("-", "", " ", "", "\t", "", "\n", "", "\r", "")
)

// DefaultPatterns returns the built-in rule table: email, phone, SSN, credit
// card, IPv4.
func DefaultPatterns() PatternSet {
	return PatternSet{
		{Category: Email, Pattern: emailPattern, Mask: maskEmail, Redact: maskEmail},
		{Category: Phone, Pattern: phonePattern, Mask: maskPhone, Redact: literal("***-***-****")},
		{Category: SSN, Pattern: ssnPattern, Mask: maskSSN, Redact: literal("***-**-****")},
		{Category: CreditCard, Pattern: creditCardPattern, Mask: maskCard, Redact: literal("****-****-****-****")},
		{Category: IPAddress, Pattern: ipPattern, Mask: maskIP},
	}
}

func literal(s string) func(string) string {
	return func(string) string { return s }
}

// maskPrefix keeps the first visible bytes and stars the rest.
func maskPrefix(s string, visible int) string {
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}
	return s[:visible] + strings.Repeat("*", len(s)-visible)
}

func maskEmail(email string) string {
	local, domain, _ := strings.Cut(email, "@")
	return maskPrefix(local, 2) + "@" + domain
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func maskPhone(m string) string {
	return "***-***-" + lastN(m, 4)
}

func maskSSN(m string) string {
	return "***-**-" + lastN(m, 4)
}

func maskCard(m string) string {
	return "****-****-****-" + lastN(cardSeparators.Replace(m), 4)
}

// maskIP keeps the first two octets: 192.168.1.100 -> 192.168.***.***
func maskIP(m string) string {
	parts := strings.SplitN(m, ".", 3)
	if len(parts) < 3 {
		return m
	}
	return parts[0] + "." + parts[1] + ".***.***"
}
