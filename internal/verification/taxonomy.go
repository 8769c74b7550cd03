package verification

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/congo-pay/admin_console/internal/document"
)

// Category is a display section of a verification result.
type Category int

const (
	CategoryPersonal Category = iota
	CategoryContact
	CategoryAddress
	CategoryIdentification
	CategoryBanking
	CategoryNextOfKin
	CategoryPartner
	// CategoryOther holds keys the taxonomy does not know. It is never
	// rendered as a section.
	CategoryOther
)

var categoryNames = [...]struct{ slug, title string }{
	CategoryPersonal:       {"personal", "Personal Information"},
	CategoryContact:        {"contact", "Contact Information"},
	CategoryAddress:        {"address", "Address Information"},
	CategoryIdentification: {"identification", "Identification"},
	CategoryBanking:        {"banking", "Banking Information"},
	CategoryNextOfKin:      {"next_of_kin", "Next of Kin"},
	CategoryPartner:        {"partner", "Partner Information"},
	CategoryOther:          {"other", "Other"},
}

// String returns the category slug.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c].slug
}

// Title is the section heading.
func (c Category) Title() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return c.String()
	}
	return categoryNames[c].title
}

// MarshalText encodes the slug.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// applicable lists, per document type, the sections in display order.
var applicable = [document.NumTypes][]Category{
	document.NationalID: {
		CategoryPersonal, CategoryContact, CategoryAddress,
		CategoryIdentification, CategoryNextOfKin, CategoryPartner,
	},
	document.BankVerificationNumber: {
		CategoryPersonal, CategoryContact, CategoryAddress, CategoryBanking,
	},
	document.VotersCard: {
		CategoryPersonal, CategoryAddress, CategoryIdentification,
	},
	document.Passport: {
		CategoryPersonal, CategoryContact, CategoryIdentification,
	},
	document.DriversLicense: {
		CategoryPersonal,
	},
}

// Categories returns the sections shown for t, in display order.
func Categories(t document.Type) []Category {
	if !t.Valid() {
		panic(fmt.Sprintf("verification: categories of invalid type %d", int(t)))
	}
	out := make([]Category, len(applicable[t]))
	copy(out, applicable[t])
	return out
}

func appliesTo(t document.Type, c Category) bool {
	for _, candidate := range applicable[t] {
		if candidate == c {
			return true
		}
	}
	return false
}

// CanonicalField is how one raw provider key is presented.
type CanonicalField struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Category  Category `json:"category"`
	Sensitive bool     `json:"sensitive"`
}

type fieldTable map[string]CanonicalField

func table(category Category, pairs ...string) fieldTable {
	if len(pairs)%2 != 0 {
		panic("verification: table needs key/label pairs")
	}
	t := make(fieldTable, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		t[pairs[i]] = CanonicalField{Key: pairs[i], Label: pairs[i+1], Category: category}
	}
	return t
}

func merge(tables ...fieldTable) fieldTable {
	out := fieldTable{}
	for _, t := range tables {
		for k, f := range t {
			if _, dup := out[k]; dup {
				panic("verification: duplicate taxonomy key " + k)
			}
			out[k] = f
		}
	}
	return out
}

// sensitive marks keys whose values are masked on display.
func sensitive(t fieldTable, keys ...string) fieldTable {
	for _, k := range keys {
		f, ok := t[k]
		if !ok {
			panic("verification: sensitive key not in taxonomy " + k)
		}
		f.Sensitive = true
		t[k] = f
	}
	return t
}

// taxonomy resolves (document type, raw key). Providers spell the same
// concept differently per document type, hence one table each.
var taxonomy = [document.NumTypes]fieldTable{
	document.NationalID: sensitive(merge(
		table(CategoryPersonal,
			"title", "Title",
			"firstname", "First Name",
			"middlename", "Middle Name",
			"surname", "Surname",
			"maidenname", "Maiden Name",
			"gender", "Gender",
			"birthdate", "Date of Birth",
			"maritalstatus", "Marital Status",
			"birthcountry", "Country of Birth",
			"religion", "Religion",
			"profession", "Profession",
			"educationallevel", "Educational Level",
			"employmentstatus", "Employment Status",
			"ospokenlang", "Spoken Language",
			"height", "Height",
		),
		table(CategoryContact,
			"telephoneno", "Phone Number",
			"email", "Email Address",
		),
		table(CategoryAddress,
			"residence_address", "Residential Address",
			"residence_town", "Town of Residence",
			"residence_lga", "LGA of Residence",
			"residence_state", "State of Residence",
			"residencestatus", "Residence Status",
			"birthstate", "State of Birth",
			"birthlga", "LGA of Birth",
			"self_origin_state", "State of Origin",
			"self_origin_lga", "LGA of Origin",
			"self_origin_place", "Place of Origin",
		),
		table(CategoryIdentification,
			"nin", "NIN",
			"trackingId", "Tracking ID",
			"centralID", "Central ID",
		),
		table(CategoryNextOfKin,
			"nok_firstname", "First Name",
			"nok_middlename", "Middle Name",
			"nok_surname", "Surname",
			"nok_address1", "Address Line 1",
			"nok_address2", "Address Line 2",
			"nok_town", "Town",
			"nok_lga", "LGA",
			"nok_state", "State",
			"nok_postalcode", "Postal Code",
		),
		table(CategoryPartner,
			"pfirstname", "First Name",
			"pmiddlename", "Middle Name",
			"psurname", "Surname",
		),
	), "nin", "telephoneno"),

	document.BankVerificationNumber: sensitive(merge(
		table(CategoryPersonal,
			"title", "Title",
			"firstName", "First Name",
			"middleName", "Middle Name",
			"lastName", "Last Name",
			"dateOfBirth", "Date of Birth",
			"gender", "Gender",
			"maritalStatus", "Marital Status",
			"nationality", "Nationality",
			"nameOnCard", "Name on Card",
		),
		table(CategoryContact,
			"phoneNumber", "Phone Number",
			"phoneNumber1", "Phone Number",
			"phoneNumber2", "Alternate Phone Number",
			"email", "Email Address",
		),
		table(CategoryAddress,
			"residentialAddress", "Residential Address",
			"stateOfResidence", "State of Residence",
			"lgaOfResidence", "LGA of Residence",
			"stateOfOrigin", "State of Origin",
			"lgaOfOrigin", "LGA of Origin",
		),
		table(CategoryBanking,
			"bvn", "BVN",
			"nin", "NIN",
			"enrollmentBank", "Enrollment Bank",
			"enrollmentBranch", "Enrollment Branch",
			"registrationDate", "Registration Date",
			"levelOfAccount", "Account Level",
			"watchListed", "Watch Listed",
		),
	), "bvn", "nin", "phoneNumber", "phoneNumber1", "phoneNumber2"),

	document.VotersCard: merge(
		table(CategoryPersonal,
			"full_name", "Full Name",
			"first_name", "First Name",
			"last_name", "Last Name",
			"other_names", "Other Names",
			"gender", "Gender",
			"birth_date", "Date of Birth",
			"occupation", "Occupation",
		),
		table(CategoryAddress,
			"address", "Address",
			"state", "State",
			"lga", "LGA",
			"ward", "Ward",
			"polling_unit", "Polling Unit",
			"polling_unit_code", "Polling Unit Code",
			"registration_area", "Registration Area",
		),
		table(CategoryIdentification,
			"vin", "Voter Identification Number",
			"registration_date", "Registration Date",
		),
	),

	document.Passport: sensitive(merge(
		table(CategoryPersonal,
			"first_name", "First Name",
			"middle_name", "Middle Name",
			"last_name", "Last Name",
			"gender", "Gender",
			"birth_date", "Date of Birth",
			"place_of_birth", "Place of Birth",
			"nationality", "Nationality",
		),
		table(CategoryContact,
			"phone", "Phone Number",
			"email", "Email Address",
		),
		table(CategoryIdentification,
			"passport_number", "Passport Number",
			"issue_date", "Issue Date",
			"expiry_date", "Expiry Date",
			"issue_place", "Place of Issue",
		),
	), "phone"),

	document.DriversLicense: table(CategoryPersonal,
		"licenseNo", "License Number",
		"firstName", "First Name",
		"middleName", "Middle Name",
		"lastName", "Last Name",
		"gender", "Gender",
		"birthDate", "Date of Birth",
		"issuedDate", "Issued Date",
		"expiryDate", "Expiry Date",
		"stateOfIssue", "State of Issue",
	),
}

// Resolve returns the presentation of key for documents of type t. Unknown
// keys get a label derived from the key, CategoryOther and no masking.
func Resolve(t document.Type, key string) CanonicalField {
	if !t.Valid() {
		panic(fmt.Sprintf("verification: resolve for invalid type %d", int(t)))
	}
	if f, ok := taxonomy[t][key]; ok {
		return f
	}
	return CanonicalField{Key: key, Label: HumanizeKey(key), Category: CategoryOther}
}

// HumanizeKey splits key at camelCase boundaries and capitalises each word:
// "watchListed" becomes "Watch Listed". Other separators are left alone.
func HumanizeKey(key string) string {
	runes := []rune(key)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	words := strings.Fields(b.String())
	for i, w := range words {
		wr := []rune(w)
		wr[0] = unicode.ToUpper(wr[0])
		words[i] = string(wr)
	}
	return strings.Join(words, " ")
}
