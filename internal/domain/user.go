package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	IDDocument   string
	Phone        string
	Email        string
	CreatedAt    time.Time
}

// UserProfile is what a registrant supplies. Password is the plaintext
// credential; it is hashed before it reaches storage.
type UserProfile struct {
	Username   string
	Password   string
	FullName   string
	IDDocument string
	Phone      string
	Email      string
}
