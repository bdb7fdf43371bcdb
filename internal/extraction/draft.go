package extraction

import "strings"

// Draft is the structured inquiry produced from a transcript and edited by the
// visitor before it is saved.
type Draft struct {
	ID              string  `json:"id,omitempty"`
	VisitorName     string  `json:"visitorName"`
	Email           *string `json:"email"`
	PhoneNumber     *string `json:"phoneNumber"`
	Purpose         string  `json:"purpose"`
	Summary         string  `json:"summary"`
	SourceSessionID string  `json:"sourceSessionId,omitempty"`
}

// Normalize trims every field and turns blank optional fields into nil.
func (d Draft) Normalize() Draft {
	d.VisitorName = strings.TrimSpace(d.VisitorName)
	d.Purpose = strings.TrimSpace(d.Purpose)
	d.Summary = strings.TrimSpace(d.Summary)
	d.Email = optional(d.Email)
	d.PhoneNumber = optional(d.PhoneNumber)
	return d
}

// Confirmable reports whether the draft carries the fields required to save it.
func (d Draft) Confirmable() bool {
	return strings.TrimSpace(d.VisitorName) != "" && strings.TrimSpace(d.Summary) != ""
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}
