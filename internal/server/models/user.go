package models

import (
	"encoding/json"
	"maps"
	"time"
)

// Keys with a fixed meaning in a user document. They are never stored in
// Profile.
const (
	FieldID        = "_id"
	FieldAltID     = "id"
	FieldEmail     = "email"
	FieldRollNo    = "rollNo"
	FieldPassword  = "password"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// IsReservedField reports whether key names one of the fixed user fields.
func IsReservedField(key string) bool {
	switch key {
	case FieldID, FieldAltID, FieldEmail, FieldRollNo, FieldPassword, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// User is an alumni account. PasswordHash is never serialized; Profile keys
// are rendered next to the fixed fields.
type User struct {
	ID           string
	Email        string
	RollNo       string
	PasswordHash string
	Profile      map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MarshalJSON renders the public representation of the account.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Profile)+5)
	for k, v := range u.Profile {
		if !IsReservedField(k) {
			out[k] = v
		}
	}
	out[FieldID] = u.ID
	out[FieldEmail] = u.Email
	out[FieldRollNo] = u.RollNo
	out[FieldCreatedAt] = u.CreatedAt
	out[FieldUpdatedAt] = u.UpdatedAt
	return json.Marshal(out)
}

// Clone returns a deep enough copy for callers to mutate Profile safely.
func (u *User) Clone() *User {
	c := *u
	c.Profile = maps.Clone(u.Profile)
	return &c
}

// UserPatch is a partial update. Nil fields are left untouched; Profile keys
// overwrite existing keys one by one.
type UserPatch struct {
	Email        *string
	RollNo       *string
	PasswordHash *string
	Profile      map[string]any
}

// Apply writes the patch into u and stamps UpdatedAt with now.
func (p *UserPatch) Apply(u *User, now time.Time) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.RollNo != nil {
		u.RollNo = *p.RollNo
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if len(p.Profile) > 0 {
		if u.Profile == nil {
			u.Profile = make(map[string]any, len(p.Profile))
		}
		for k, v := range p.Profile {
			u.Profile[k] = v
		}
	}
	u.UpdatedAt = now
}
