package models

import "time"

// Role represents a user's platform role. It is informational only; event authority comes from
// being an event's creator.
type Role string

const (
	RoleOrganizer Role = "ORGANIZER"
	RoleStudent   Role = "STUDENT"
)

// User is a directory entry in the snapshot. ID is the registration number.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Role    Role   `json:"role"`
}

// FullName returns "Name Surname" trimmed.
func (u User) FullName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}

// Account is a credential record owned by the auth repository. It never enters the snapshot.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Directory returns the snapshot view of the account.
func (a *Account) Directory() User {
	return User{ID: a.ID, Name: a.Name, Surname: a.Surname, Role: a.Role}
}
