package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Customer is a person who brings devices in for repair. Cedula is unique.
type Customer struct {
	ID        uuid.UUID
	Cedula    string
	FullName  string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var cedulaRegex = regexp.MustCompile(`^[0-9A-Za-z-]{5,20}$`)

// NewCustomer creates a customer with normalized fields.
func NewCustomer(cedula, fullName, phone, email, address string, now time.Time) (*Customer, error) {
	c := &Customer{
		ID:        uuid.New(),
		Cedula:    strings.ToUpper(strings.TrimSpace(cedula)),
		FullName:  strings.TrimSpace(fullName),
		Phone:     strings.TrimSpace(phone),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Address:   strings.TrimSpace(address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate applies business validation rules
func (c *Customer) Validate() error {
	if !cedulaRegex.MatchString(c.Cedula) {
		return invalid("cedula", "cedula must be 5-20 letters, digits or hyphens")
	}
	if n := utf8.RuneCountInString(c.FullName); n < 2 || n > 120 {
		return invalid("full_name", "full name must be 2-120 characters")
	}
	if n := len(c.Phone); n < 7 || n > 20 {
		return invalid("phone", "phone must be 7-20 characters")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return invalid("email", "email is not valid")
	}
	return nil
}
