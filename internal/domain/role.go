package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a role string does not name a known role.
var ErrUnknownRole = errors.New("unknown role")

// Role is the closed set of roles a console user can hold.
type Role int

const (
	// RoleNone is the zero value and is never assigned to a logged-in user.
	RoleNone Role = iota
	RoleAdmin
	RoleDoctor
	RolePatient
)

// Default views for each role family.
const (
	DoctorHomePath  = "/admin/bookings"
	PatientHomePath = "/patient/bookings"
	LoginPath       = "/login"
)

var roleNames = map[Role]string{
	RoleAdmin:   "Admin",
	RoleDoctor:  "Doctor",
	RolePatient: "Patient",
}

// ParseRole parses the role name used by the remote API. Matching is case
// insensitive.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return r, nil
		}
	}
	return RoleNone, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// String returns the wire name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if r == RoleNone {
		return nil, ErrUnknownRole
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// IsDoctor reports whether the role may use the doctor views. Admins are
// doctors.
func (r Role) IsDoctor() bool {
	return r == RoleAdmin || r == RoleDoctor
}

// IsPatient reports whether the role may use the patient views.
func (r Role) IsPatient() bool {
	return r == RolePatient
}

// HomePath returns the default view for the role.
func (r Role) HomePath() string {
	switch {
	case r.IsDoctor():
		return DoctorHomePath
	case r.IsPatient():
		return PatientHomePath
	default:
		return LoginPath
	}
}

// Requirement is the role capability a view demands.
type Requirement int

const (
	// RequireAny admits any authenticated user.
	RequireAny Requirement = iota
	RequireDoctor
	RequirePatient
)

func (q Requirement) String() string {
	switch q {
	case RequireDoctor:
		return "doctor"
	case RequirePatient:
		return "patient"
	default:
		return "any"
	}
}

// Satisfies reports whether the role meets the requirement.
func (r Role) Satisfies(q Requirement) bool {
	switch q {
	case RequireAny:
		return r != RoleNone
	case RequireDoctor:
		return r.IsDoctor()
	case RequirePatient:
		return r.IsPatient()
	default:
		return false
	}
}
