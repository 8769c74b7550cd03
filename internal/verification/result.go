package verification

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/congo-pay/admin_console/internal/document"
)

// Result is the outcome of one successful submission. It is built once from
// the provider response and not modified afterwards.
type Result struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message,omitempty"`
	DocumentType document.Type `json:"documentType"`
	Sections     []Section     `json:"sections"`
	// RawFields lists every populated attribute, including ones outside the
	// sections, with fallback labels for unknown keys.
	RawFields []Entry `json:"rawFields"`
	// RawData is the unmasked provider payload. It only leaves the process
	// through Export.
	RawData RawData `json:"-"`
}

// NewResult normalises raw for documents of type t.
func NewResult(t document.Type, message string, raw RawData) Result {
	return Result{
		Success:      true,
		Message:      message,
		DocumentType: t,
		Sections:     Normalize(t, raw),
		RawFields:    entries(t, raw),
		RawData:      raw,
	}
}

// Section returns the section of category c, if present.
func (r Result) Section(c Category) (Section, bool) {
	for _, s := range r.Sections {
		if s.Category == c {
			return s, true
		}
	}
	return Section{}, false
}

// PrettyJSON indents a JSON document for display. Input that does not parse
// is returned unchanged.
func PrettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(s)), "", "  "); err != nil {
		return s
	}
	return buf.String()
}
