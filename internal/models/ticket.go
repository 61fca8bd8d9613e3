package models

import (
	"fmt"
	"strings"
)

// Ticket is a maintenance/support record mirrored from the document store.
type Ticket struct {
	ID       string `json:"id" yaml:"id,omitempty"`
	Names    string `json:"names" yaml:"names"`
	Location string `json:"location" yaml:"location"`
	Issue    string `json:"issue" yaml:"issue"`
}

// Fields returns the mutable part of the ticket.
func (t Ticket) Fields() Fields {
	return Fields{
		Names:    t.Names,
		Location: t.Location,
		Issue:    t.Issue,
	}
}

// WithFields returns a copy of the ticket carrying the given field values.
func (t Ticket) WithFields(f Fields) Ticket {
	t.Names = f.Names
	t.Location = f.Location
	t.Issue = f.Issue
	return t
}

// Fields holds the user-editable attributes of a ticket.
type Fields struct {
	Names    string `json:"names" yaml:"names"`
	Location string `json:"location" yaml:"location"`
	Issue    string `json:"issue" yaml:"issue"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f Fields) Trimmed() Fields {
	return Fields{
		Names:    strings.TrimSpace(f.Names),
		Location: strings.TrimSpace(f.Location),
		Issue:    strings.TrimSpace(f.Issue),
	}
}

// Validate reports the first empty field.
func (f Fields) Validate() error {
	switch {
	case strings.TrimSpace(f.Names) == "":
		return &FieldError{Field: "names"}
	case strings.TrimSpace(f.Location) == "":
		return &FieldError{Field: "location"}
	case strings.TrimSpace(f.Issue) == "":
		return &FieldError{Field: "issue"}
	}
	return nil
}

// Map converts the fields into the document shape stored remotely.
func (f Fields) Map() map[string]any {
	return map[string]any{
		"names":    f.Names,
		"location": f.Location,
		"issue":    f.Issue,
	}
}

// FieldError reports a missing required field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}
