package order

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxCustomerNameLength = 100
	maxNotesLength        = 500
)

var (
	// (DD) DDDD-DDDD or (DD) DDDDD-DDDD
	phonePattern = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidateCustomer checks customer details and returns a normalized copy
// (trimmed strings, empty address dropped).
func ValidateCustomer(info CustomerInfo) (CustomerInfo, error) {
	out := CustomerInfo{
		Name:  strings.TrimSpace(info.Name),
		Phone: strings.TrimSpace(info.Phone),
		Email: strings.TrimSpace(info.Email),
	}

	if out.Name == "" {
		return CustomerInfo{}, invalidCustomer("name", "is required")
	}
	if utf8.RuneCountInString(out.Name) > maxCustomerNameLength {
		return CustomerInfo{}, invalidCustomer("name", "cannot exceed 100 characters")
	}
	if out.Phone == "" {
		return CustomerInfo{}, invalidCustomer("phone", "is required")
	}
	if !phonePattern.MatchString(out.Phone) {
		return CustomerInfo{}, invalidCustomer("phone", "must match (XX) XXXXX-XXXX")
	}
	if out.Email != "" && !emailPattern.MatchString(out.Email) {
		return CustomerInfo{}, invalidCustomer("email", "is not a valid address")
	}

	if !info.Address.IsZero() {
		addr := *info.Address
		out.Address = &addr
	}
	return out, nil
}

// ValidateNotes trims notes and enforces the length limit.
func ValidateNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return "", invalidOrder("notes", "cannot exceed 500 characters")
	}
	return notes, nil
}
