package quote

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status represents the lifecycle status of a quote
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDeclined  Status = "DECLINED"
	StatusExpired   Status = "EXPIRED"
	StatusConverted Status = "CONVERTED"
)

// AllStatuses lists the known statuses in lifecycle order
var AllStatuses = []Status{
	StatusDraft,
	StatusSent,
	StatusPending,
	StatusApproved,
	StatusDeclined,
	StatusExpired,
	StatusConverted,
}

var labelCaser = cases.Title(language.English)

// ParseStatus normalizes a status read from the wire. Known statuses are
// matched case-insensitively; anything else is kept verbatim.
func ParseStatus(s string) Status {
	upper := Status(strings.ToUpper(strings.TrimSpace(s)))
	if upper.IsValid() {
		return upper
	}
	return Status(s)
}

// IsValid checks if the status is one of the known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPending, StatusApproved,
		StatusDeclined, StatusExpired, StatusConverted:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends the quote's lifecycle
func (s Status) IsTerminal() bool {
	return s == StatusConverted || s == StatusDeclined || s == StatusExpired
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Label returns the display form, e.g. "Converted" for CONVERTED
func (s Status) Label() string {
	if s == "" {
		return "Unknown"
	}
	return labelCaser.String(strings.ToLower(string(s)))
}
