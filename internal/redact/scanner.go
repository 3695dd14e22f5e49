// Package redact is the offline pattern scanner. It covers the same
// categories as the redaction service's regex tier, so a cycle can
// still offer a redacted variant when the service is unreachable. The
// service's NER tier has no offline equivalent; names and addresses
// pass undetected here.
package redact

import (
	"regexp"
	"sort"
)

// Type identifies the category of sensitive data. Values match the
// service's type tags.
type Type string

const (
	TypeSSN      Type = "SSN"   // resident registration number
	TypeCard     Type = "CC"    // payment card number
	TypePassport Type = "PASS"  // passport number
	TypeLicense  Type = "DLN"   // driver's license number
	TypePhone    Type = "PHONE" // mobile number
	TypeAccount  Type = "ACCT"  // bank account number
	TypeEmail    Type = "EMAIL"
)

// Match is a single occurrence of sensitive data in text.
type Match struct {
	Type  Type
	Value string
	Start int
	End   int
}

var (
	ssnRe  = regexp.MustCompile(`\b\d{6}-\d{7}\b`)
	cardRe = regexp.MustCompile(`\b(?:\d{4}[- ]?){3}\d{4}\b`)
	passRe = regexp.MustCompile(`\b[A-Z][- ]?\d{8}\b`)
	dlnRe  = regexp.MustCompile(`\b\d{2}-\d{6}-\d{2}\b`)

	phoneRe = regexp.MustCompile(`\b010[- ]?\d{3,4}[- ]?\d{4}\b`)

	acctRes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{6}-\d{2}-\d{6}\b`),
		regexp.MustCompile(`\b\d{3}-\d{3}-\d{6}\b`),
		regexp.MustCompile(`\b\d{12}\b`),
		regexp.MustCompile(`\b\d{10}\b`),
	}

	emailRe = regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)
)

// Scan finds all sensitive patterns in text. Matches claim their span
// in priority order; a later pattern never overlaps an earlier claim,
// so a card number is never re-detected as an account number. The
// result is sorted by position.
func Scan(text string) []Match {
	var matches []Match
	var claimed [][2]int

	overlaps := func(start, end int) bool {
		for _, c := range claimed {
			if start < c[1] && end > c[0] {
				return true
			}
		}
		return false
	}
	add := func(typ Type, re *regexp.Regexp) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlaps(loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			matches = append(matches, Match{
				Type:  typ,
				Value: text[loc[0]:loc[1]],
				Start: loc[0],
				End:   loc[1],
			})
		}
	}

	add(TypeSSN, ssnRe)
	add(TypeCard, cardRe)
	add(TypePassport, passRe)
	add(TypeLicense, dlnRe)
	add(TypePhone, phoneRe)
	for _, re := range acctRes {
		add(TypeAccount, re)
	}
	add(TypeEmail, emailRe)

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	return matches
}
