package users

import "time"

// User is a signed-in student. Guests have no stored user.
type User struct {
	ID         string
	Email      string
	FullName   string
	GivenName  string
	FamilyName string
	PictureURL string
	// AlertEmail overrides Email as the grade alert recipient when set.
	AlertEmail string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recipient returns the address grade alerts go to.
func (u User) Recipient() string {
	if u.AlertEmail != "" {
		return u.AlertEmail
	}
	return u.Email
}
