package domain

import "time"

// User is a staff account (admins, CGMs, heads of department, trainers).
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Permissions  []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
