package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PhotoInput is one entry of a step's photos field. Clients send either a bare
// string (data URI, base64 or an existing reference) or an object.
type PhotoInput struct {
	Image     string `json:"image,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *PhotoInput) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if isReference(s) {
			p.Reference = s
		} else {
			p.Image = s
		}
		return nil
	}

	type plain PhotoInput
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("PhotoInput: expected string or object: %w", err)
	}
	*p = PhotoInput(v)
	return nil
}

// IsReferenceOnly reports whether the entry points at an already stored photo
// and carries no new image data.
func (p PhotoInput) IsReferenceOnly() bool {
	return strings.TrimSpace(p.Image) == "" && (p.Reference != "" || p.PhotoURL != "")
}

// IsEmpty reports whether the entry carries nothing at all
func (p PhotoInput) IsEmpty() bool {
	return strings.TrimSpace(p.Image) == "" && p.Reference == "" && p.PhotoURL == ""
}

func isReference(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
