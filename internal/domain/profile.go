package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleReceptionist Role = "receptionist"
	RoleTechnician   Role = "technician"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReceptionist || r == RoleTechnician
}

type Permission string

const (
	PermManageUsers       Permission = "manage_users"
	PermDeleteRecords     Permission = "delete_records"
	PermCreateOrders      Permission = "create_orders"
	PermManageCustomers   Permission = "manage_customers"
	PermWorkOrders        Permission = "work_orders"
	PermAssignTechnicians Permission = "assign_technicians"
	PermDeliverOrders     Permission = "deliver_orders"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermManageUsers, PermDeleteRecords, PermCreateOrders, PermManageCustomers,
		PermWorkOrders, PermAssignTechnicians, PermDeliverOrders,
	},
	RoleReceptionist: {PermCreateOrders, PermManageCustomers, PermAssignTechnicians, PermDeliverOrders},
	RoleTechnician:   {PermWorkOrders},
}

// Can reports whether the role grants the permission.
func (r Role) Can(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

// Profile is an application user. Sede is the branch the user works at.
type Profile struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	Role         Role
	Sede         string
	PasswordHash string
	Active       bool
	LastSeenAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProfile creates an active profile. The password hash is set by the caller.
func NewProfile(email, fullName string, role Role, sede string, now time.Time) (*Profile, error) {
	p := &Profile{
		ID:        uuid.New(),
		Email:     NormalizeEmail(email),
		FullName:  strings.TrimSpace(fullName),
		Role:      role,
		Sede:      strings.TrimSpace(sede),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate applies business validation rules
func (p *Profile) Validate() error {
	if !validEmail(p.Email) {
		return invalid("email", "email is not valid")
	}
	if n := utf8.RuneCountInString(p.FullName); n < 2 || n > 120 {
		return invalid("full_name", "full name must be 2-120 characters")
	}
	if !p.Role.Valid() {
		return invalid("role", "role must be one of: admin, receptionist, technician")
	}
	return nil
}

// Viewer returns the session identity of the profile.
func (p *Profile) Viewer() Viewer {
	return Viewer{ProfileID: p.ID, Role: p.Role, Sede: p.Sede, FullName: p.FullName}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

// ValidatePassword checks the minimal password policy.
func ValidatePassword(password string) error {
	if n := utf8.RuneCountInString(password); n < 8 || n > 72 {
		return invalid("password", "password must be 8-72 characters")
	}
	return nil
}
