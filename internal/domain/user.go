package domain

import "time"

// User is the identity and credential record of an account.
// OTPHash and OTPExpires are either both set or both nil.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool
	OTPHash      *string
	OTPExpires   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPendingOTP reports whether a verification code is outstanding.
func (u *User) HasPendingOTP() bool {
	return u.OTPHash != nil && u.OTPExpires != nil
}

// AuthUser is the minimal projection attached to authenticated requests.
type AuthUser struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// Projection returns the AuthUser view of u.
func (u *User) Projection() AuthUser {
	return AuthUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
