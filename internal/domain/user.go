package domain

import "time"

// User is the account record. PasswordHash is only populated by lookups
// that explicitly select the credential and is never serialized.
type User struct {
	ID           int64     `json:"id" db:"id"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	Role         Role      `json:"role" db:"role"`
	TenantID     *int64    `json:"tenantId,omitempty" db:"tenant_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Public returns a copy of u with the credential removed.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}
