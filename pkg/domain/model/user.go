package model

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// UserID is the local identity of an account. It is independent of the
// identity the account has on the emitter.
type UserID string

// NewUserID generates a new random user ID
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

func (id UserID) String() string {
	return string(id)
}

// User is a locally stored account.
type User struct {
	ID            UserID
	Login         string
	PasswordHash  string `masq:"secret"`
	Nicename      string
	Email         string
	URL           string
	RegisteredAt  time.Time
	ActivationKey string `masq:"secret"`
	Status        int
	DisplayName   string

	// Capabilities holds both assigned role keys and individual capability
	// grants, keyed by name.
	Capabilities CapabilityMap
	Level        int

	Meta map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the top-level maps. Meta values are shared.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Capabilities = maps.Clone(u.Capabilities)
	c.Meta = maps.Clone(u.Meta)
	return &c
}

// HasAnyRole reports whether the account holds any of the given roles.
func (u *User) HasAnyRole(roles []string) bool {
	for _, r := range roles {
		if u.Capabilities[r] {
			return true
		}
	}
	return false
}

// RoleKeys returns the granted capability keys that name a known role, in
// sorted order.
func (u *User) RoleKeys(isRole func(key string) bool) []string {
	var roles []string
	for _, key := range u.Capabilities.GrantedKeys() {
		if isRole(key) {
			roles = append(roles, key)
		}
	}
	return roles
}
