package extract

import (
	"regexp"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
)

// valuePattern finds a self-delimiting value such as an email or a phone number.
type valuePattern struct {
	name  string
	typ   criterion.Type
	regex *regexp.Regexp
	// group selects the submatch holding the value; 0 is the whole match.
	group int
	// digitBounded rejects matches glued to other digits.
	digitBounded bool
	// minDigits and maxDigits bound the digit count of the value when non-zero.
	minDigits, maxDigits int
}

// valuePatterns run in order; earlier patterns consume their spans first.
var valuePatterns = []valuePattern{
	{
		name:  "email",
		typ:   criterion.Email,
		regex: regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	},
	{
		name:         "indian_mobile",
		typ:          criterion.Phone,
		regex:        regexp.MustCompile(`(?:\+?91[\s-]?|0)?[6-9]\d{4}[\s-]?\d{5}`),
		digitBounded: true,
	},
	{
		name:  "pan",
		typ:   criterion.GovernmentID,
		regex: regexp.MustCompile(`\b[A-Za-z]{5}\d{4}[A-Za-z]\b`),
	},
	{
		name:         "aadhaar",
		typ:          criterion.GovernmentID,
		regex:        regexp.MustCompile(`\b[2-9]\d{3}[\s-]?\d{4}[\s-]?\d{4}\b`),
		digitBounded: true,
	},
	{
		name:  "voter_id",
		typ:   criterion.GovernmentID,
		regex: regexp.MustCompile(`\b[A-Za-z]{3}\d{7}\b`),
	},
	{
		name:  "passport",
		typ:   criterion.GovernmentID,
		regex: regexp.MustCompile(`\b[A-Za-z]\d{7}\b`),
	},
	{
		name:      "account_cue",
		typ:       criterion.Account,
		regex:     regexp.MustCompile(`(?i)\b(?:a/c|acct|account|acc)(?:\s*(?:no|number|num)\.?)?\s*[:#-]?\s*(\d[\d\s-]{7,22}\d)`),
		group:     1,
		minDigits: 9,
		maxDigits: 18,
	},
	{
		name:         "bare_account",
		typ:          criterion.Account,
		regex:        regexp.MustCompile(`\b\d{11,18}\b`),
		digitBounded: true,
	},
	{
		name:  "company_suffix",
		typ:   criterion.Company,
		regex: regexp.MustCompile(`\b(?:[A-Z][A-Za-z0-9&]*\s+){1,4}(?i:pvt\.?\s+ltd|private\s+limited|ltd|limited|llp|inc|corp|corporation|technologies|enterprises|industries)\b`),
	},
}

var (
	// companyCue introduces an employer phrase.
	companyCue = regexp.MustCompile(`(?i)\b(?:works at|working at|works for|working for|employed at|employed by|employer|company)\b`)

	// nameCue introduces a person's name.
	nameCue = regexp.MustCompile(`(?i)\b(?:search for|look up|lookup|find|named|called|person|name is|name|about|who is)\b`)

	// locationCue introduces a place.
	locationCue = regexp.MustCompile(`(?i)\b(?:lives in|living in|based in|resident of|located in|from|in|at|near|city|district)\b`)

	// properNoun finds runs of capitalized words.
	properNoun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

	// quoted finds double-quoted phrases.
	quoted = regexp.MustCompile(`"([^"]+)"`)

	// token splits the query into words.
	token = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}.'&-]*`)

	// word accepts a token usable inside a name or place.
	word = regexp.MustCompile(`^\p{L}[\p{L}.'-]*$`)
)

// stopWords end a cue phrase.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"for": true, "to": true, "on": true, "is": true, "has": true, "with": true,
	"having": true, "who": true, "whose": true, "which": true, "that": true,
	"from": true, "in": true, "at": true, "near": true, "by": true,
	"phone": true, "mobile": true, "number": true, "no": true, "contact": true,
	"email": true, "mail": true, "id": true, "pan": true, "aadhaar": true,
	"aadhar": true, "passport": true, "voter": true, "account": true,
	"acct": true, "lives": true, "living": true, "based": true, "resident": true,
	"located": true, "works": true, "working": true, "employed": true,
	"named": true, "called": true, "city": true, "district": true,
	"find": true, "search": true, "person": true, "name": true, "about": true,
	"records": true, "details": true, "all": true, "any": true, "me": true,
	"his": true, "her": true, "their": true, "and/or": true,
}

// corporateWords mark a cue phrase as a company rather than a person.
var corporateWords = map[string]bool{
	"pvt": true, "ltd": true, "limited": true, "llp": true, "inc": true,
	"corp": true, "corporation": true, "technologies": true,
	"enterprises": true, "industries": true, "bank": true,
}
