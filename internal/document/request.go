package document

import (
	"encoding/json"
	"strings"
)

// Request is the outbound verification payload. Personal fields are only
// populated for types that require them.
type Request struct {
	DocumentType Type
	Number       string
	FirstName    string
	LastName     string
	DateOfBirth  string
}

type wireRequest struct {
	Type      string `json:"type"`
	Number    string `json:"number"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
	DOB       string `json:"dob,omitempty"`
}

// BuildRequest assembles a Request from input that already passed Validate.
func BuildRequest(t Type, number string, info *PersonalInfo) Request {
	req := Request{
		DocumentType: t,
		Number:       StripWhitespace(strings.TrimSpace(number)),
	}
	if Lookup(t).RequiresPersonalInfo && info != nil {
		req.FirstName = strings.TrimSpace(info.FirstName)
		req.LastName = strings.TrimSpace(info.LastName)
		req.DateOfBirth = strings.TrimSpace(info.DateOfBirth)
	}
	return req
}

// HasPersonalInfo reports whether the request carries personal fields.
func (r Request) HasPersonalInfo() bool {
	return r.FirstName != "" || r.LastName != "" || r.DateOfBirth != ""
}

// MarshalJSON encodes the provider wire body.
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRequest{
		Type:      r.DocumentType.String(),
		Number:    r.Number,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		DOB:       r.DateOfBirth,
	})
}
