package document

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Field names used as keys in ValidationError.
const (
	FieldDocumentType = "documentType"
	FieldNumber       = "number"
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldDateOfBirth  = "dateOfBirth"
)

// DateLayout is the accepted date of birth format.
const DateLayout = "2006-01-02"

const (
	minNameLength = 2
	minAge        = 16
	maxAge        = 120
)

type charset int

const (
	digitsOnly charset = iota
	alphanumeric
	alphanumericWithSeparators
)

// Rule is the length and character constraint applied to a document number.
type Rule struct {
	Name      string
	MinLength int
	MaxLength int
	charset   charset
}

var rules = [NumTypes]Rule{
	NationalID:             {Name: "NIN", MinLength: 11, MaxLength: 11, charset: digitsOnly},
	BankVerificationNumber: {Name: "BVN", MinLength: 11, MaxLength: 11, charset: digitsOnly},
	VotersCard:             {Name: "Voter's card number", MinLength: 19, MaxLength: 19, charset: alphanumeric},
	Passport:               {Name: "Passport number", MinLength: 6, MaxLength: 15, charset: alphanumeric},
	DriversLicense:         {Name: "Driver's license number", MinLength: 6, MaxLength: 20, charset: alphanumericWithSeparators},
}

var namePattern = regexp.MustCompile(`^[A-Za-z \-']+$`)

// RuleFor returns the number rule of t.
func RuleFor(t Type) Rule {
	if !t.Valid() {
		panic(fmt.Sprintf("document: rule for invalid type %d", int(t)))
	}
	return rules[t]
}

// Check applies the rule to an already whitespace-free number and returns the
// reason it fails, or "" when it passes.
func (r Rule) Check(number string) string {
	n := len([]rune(number))
	if n < r.MinLength || n > r.MaxLength {
		return r.lengthMessage()
	}
	for _, c := range number {
		if !r.allows(c) {
			return r.charsetMessage()
		}
	}
	return ""
}

func (r Rule) allows(c rune) bool {
	isAlnum := c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c))
	switch r.charset {
	case digitsOnly:
		return c >= '0' && c <= '9'
	case alphanumeric:
		return isAlnum
	case alphanumericWithSeparators:
		return isAlnum || c == ' ' || c == '-' || c == '/'
	default:
		panic(fmt.Sprintf("document: unhandled charset %d", r.charset))
	}
}

func (r Rule) lengthMessage() string {
	if r.MinLength == r.MaxLength {
		unit := "characters"
		if r.charset == digitsOnly {
			unit = "digits"
		}
		return fmt.Sprintf("%s must be exactly %d %s", r.Name, r.MinLength, unit)
	}
	return fmt.Sprintf("%s must be between %d and %d characters", r.Name, r.MinLength, r.MaxLength)
}

func (r Rule) charsetMessage() string {
	switch r.charset {
	case digitsOnly:
		return r.Name + " must contain only numbers"
	case alphanumeric:
		return r.Name + " must contain only letters and numbers"
	case alphanumericWithSeparators:
		return r.Name + " may only contain letters, numbers, spaces, hyphens and slashes"
	default:
		panic(fmt.Sprintf("document: unhandled charset %d", r.charset))
	}
}

// PersonalInfo is collected alongside the number for some document types.
type PersonalInfo struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Input is the raw form state submitted by an operator.
type Input struct {
	DocumentType string        `json:"documentType"`
	Number       string        `json:"number"`
	PersonalInfo *PersonalInfo `json:"personalInfo,omitempty"`
}

// ValidationError maps form fields to human readable messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator checks verification input before it is submitted.
type Validator struct {
	now func() time.Time
}

// ValidatorOption customises a Validator.
type ValidatorOption func(*Validator)

// WithClock overrides the clock used for date of birth checks.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.now = now
	}
}

// NewValidator builds a Validator using the wall clock by default.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns nil when the input may be submitted, otherwise a
// *ValidationError describing every offending field.
func (v *Validator) Validate(in Input) error {
	errs := map[string]string{}

	t, err := ParseType(in.DocumentType)
	if err != nil {
		errs[FieldDocumentType] = "Document type is required"
	}

	number := StripWhitespace(in.Number)
	switch {
	case number == "":
		errs[FieldNumber] = "Document number is required"
	case err == nil:
		if reason := rules[t].Check(number); reason != "" {
			errs[FieldNumber] = reason
		}
	}

	if err == nil && registry[t].RequiresPersonalInfo {
		var info PersonalInfo
		if in.PersonalInfo != nil {
			info = *in.PersonalInfo
		}
		if msg := checkName("First name", info.FirstName); msg != "" {
			errs[FieldFirstName] = msg
		}
		if msg := checkName("Last name", info.LastName); msg != "" {
			errs[FieldLastName] = msg
		}
		if msg := v.checkDateOfBirth(info.DateOfBirth); msg != "" {
			errs[FieldDateOfBirth] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

func checkName(label, value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return label + " is required"
	case len([]rune(value)) < minNameLength:
		return fmt.Sprintf("%s must be at least %d characters", label, minNameLength)
	case !namePattern.MatchString(value):
		return label + " may only contain letters, spaces, hyphens and apostrophes"
	}
	return ""
}

// checkDateOfBirth computes age as the difference of calendar years, so a
// birthday later in the current year still counts as reached.
func (v *Validator) checkDateOfBirth(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Date of birth is required"
	}
	dob, err := time.Parse(DateLayout, value)
	if err != nil {
		return "Date of birth must be a valid date (YYYY-MM-DD)"
	}
	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if dob.After(today) {
		return "Date of birth cannot be in the future"
	}
	age := today.Year() - dob.Year()
	if age < minAge {
		return fmt.Sprintf("You must be at least %d years old", minAge)
	}
	if age > maxAge {
		return "Please enter a valid date of birth"
	}
	return ""
}

// StripWhitespace removes every whitespace rune from s.
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
