package document

import (
	"errors"
	"fmt"
	"strings"
)

// Type identifies a supported identity credential.
type Type int

const (
	NationalID Type = iota
	BankVerificationNumber
	VotersCard
	Passport
	DriversLicense

	// NumTypes is the size of every per-type table. Tables are arrays of this
	// length so adding a type forces each of them to be revisited.
	NumTypes
)

// ErrUnknownType is returned when a wire code does not name a document type.
var ErrUnknownType = errors.New("unknown document type")

// Info describes how a document type is collected.
type Info struct {
	Code                 string
	Label                string
	Placeholder          string
	MaxLength            int
	RequiresPersonalInfo bool
}

var registry = [NumTypes]Info{
	NationalID: {
		Code:        "nin",
		Label:       "National Identification Number (NIN)",
		Placeholder: "Enter 11-digit NIN",
		MaxLength:   11,
	},
	BankVerificationNumber: {
		Code:        "bvn",
		Label:       "Bank Verification Number (BVN)",
		Placeholder: "Enter 11-digit BVN",
		MaxLength:   11,
	},
	VotersCard: {
		Code:        "voters",
		Label:       "Voter's Card",
		Placeholder: "Enter 19-character VIN",
		MaxLength:   19,
	},
	Passport: {
		Code:                 "passport",
		Label:                "International Passport",
		Placeholder:          "Enter passport number",
		MaxLength:            15,
		RequiresPersonalInfo: true,
	},
	DriversLicense: {
		Code:                 "driver",
		Label:                "Driver's License",
		Placeholder:          "Enter driver's license number",
		MaxLength:            20,
		RequiresPersonalInfo: true,
	},
}

// Lookup returns the catalogue entry for t. An out-of-range value is a
// programming error and panics.
func Lookup(t Type) Info {
	if !t.Valid() {
		panic(fmt.Sprintf("document: lookup of invalid type %d", int(t)))
	}
	return registry[t]
}

// Types lists every document type in catalogue order.
func Types() []Type {
	out := make([]Type, 0, NumTypes)
	for t := Type(0); t < NumTypes; t++ {
		out = append(out, t)
	}
	return out
}

// ParseType resolves a wire code such as "nin" or "driver".
func ParseType(code string) (Type, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	for t := Type(0); t < NumTypes; t++ {
		if registry[t].Code == code {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, code)
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	return t >= 0 && t < NumTypes
}

// String returns the wire code.
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return registry[t].Code
}

// MarshalText encodes the type as its wire code.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("document: marshal invalid type %d", int(t))
	}
	return []byte(registry[t].Code), nil
}

// UnmarshalText decodes a wire code.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
