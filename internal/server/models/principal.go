// Package models holds the server-side domain records.
package models

import "time"

// Principal is the identity record of a registered user.
// Username is unique, case-sensitive and never changes after registration.
type Principal struct {
	ID       string
	Username string
	Email    string
	FullName string
	Active   bool
	// CreatedAt is set by the directory on insert, in UTC.
	CreatedAt time.Time
}

// Credential is the stored password digest of exactly one Principal.
type Credential struct {
	Username     string
	PasswordHash string
}

// Profile is the public projection of a Principal returned across the
// service boundary. It never carries credential material.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Active   bool   `json:"active"`
}

// Profile projects p onto its public fields.
func (p *Principal) Profile() Profile {
	return Profile{
		Username: p.Username,
		Email:    p.Email,
		FullName: p.FullName,
		Active:   p.Active,
	}
}
