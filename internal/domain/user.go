// Package domain contains core domain types for the MediBook console.
package domain

import "strings"

// User is the profile returned by the remote API at login.
type User struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Username    string `json:"username,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case name != "":
		return name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// PatientInfo is the condensed patient row used by the patients list.
type PatientInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Username         string `json:"username,omitempty"`
	PhoneNumber      string `json:"phoneNumber,omitempty"`
	RegistrationDate string `json:"registrationDate"`
}
