package domain

import "time"

type (
	Email    = string
	Password = string
	UserId   = int64
)

// User is the identity record owned by the Postgres user directory.
// Emails are stored lowercased; lookups lowercase their input, so the
// column is effectively case-insensitive.
type User struct {
	Id          UserId
	Email       Email
	PassHash    string
	ActivatedAt *time.Time // nil = account not activated yet
	BannedAt    *time.Time // nil = not banned
}

// Active reports whether the activation timestamp is set.
func (u User) Active() bool { return u.ActivatedAt != nil }

// Banned reports whether the ban timestamp is set.
func (u User) Banned() bool { return u.BannedAt != nil }

// PublicUser is the externally visible slice of a user record.
// Password hashes and moderation timestamps never leave the service.
type PublicUser struct {
	Id    UserId `json:"id"`
	Email Email  `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{Id: u.Id, Email: u.Email}
}

// LookupFilter narrows user directory lookups by activation/ban state.
// A nil field means "don't care". The zero value matches any user.
type LookupFilter struct {
	Active *bool
	Banned *bool
}

// ActiveUnbanned is the filter used on every authentication path:
// the account must be activated and must not be banned.
func ActiveUnbanned() LookupFilter {
	t, f := true, false
	return LookupFilter{Active: &t, Banned: &f}
}

// InactiveUnbanned matches accounts pending activation.
func InactiveUnbanned() LookupFilter {
	f := false
	return LookupFilter{Active: &f, Banned: &f}
}

// AnyState matches regardless of activation or ban status.
func AnyState() LookupFilter { return LookupFilter{} }
