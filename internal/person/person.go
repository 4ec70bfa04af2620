package person

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrFieldsRequired is returned by Draft.Validate when a field is left empty.
// The message is shown to the user as-is.
var ErrFieldsRequired = errors.New("All fields are required.")

// ID is the server assigned identifier. Backends hand it out either as a
// string or as a number, both decode into the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

type Person struct {
	ID         ID     `json:"id"`
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
	IDNumber   string `json:"idNumber"`
	Telephone  string `json:"telephone"`
}

// Draft holds the values of the form while a new record is being composed.
// It is also the payload sent when creating a record.
type Draft struct {
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
	IDNumber   string `json:"idNumber"`
	Telephone  string `json:"telephone"`
}

// Field names one input of the form, in display order.
type Field int

const (
	FieldName Field = iota
	FieldOccupation
	FieldIDNumber
	FieldTelephone
)

// Fields lists every form field in display order.
var Fields = []Field{FieldName, FieldOccupation, FieldIDNumber, FieldTelephone}

func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldOccupation:
		return "Occupation"
	case FieldIDNumber:
		return "ID No"
	case FieldTelephone:
		return "Telephone"
	default:
		return "?"
	}
}

// Get returns the value of a single field.
func (d Draft) Get(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldOccupation:
		return d.Occupation
	case FieldIDNumber:
		return d.IDNumber
	case FieldTelephone:
		return d.Telephone
	}
	return ""
}

// Set returns a copy of the draft with exactly one field replaced.
func (d Draft) Set(f Field, value string) Draft {
	switch f {
	case FieldName:
		d.Name = value
	case FieldOccupation:
		d.Occupation = value
	case FieldIDNumber:
		d.IDNumber = value
	case FieldTelephone:
		d.Telephone = value
	}
	return d
}

// Validate only checks presence. Whitespace counts as a value.
func (d Draft) Validate() error {
	if d.Name == "" || d.Occupation == "" || d.IDNumber == "" || d.Telephone == "" {
		return ErrFieldsRequired
	}
	return nil
}

// Filter keeps the persons whose name contains term, ignoring case.
// An empty term returns persons unchanged.
func Filter(persons []Person, term string) []Person {
	if term == "" {
		return persons
	}
	term = strings.ToLower(term)
	out := make([]Person, 0, len(persons))
	for _, p := range persons {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}
