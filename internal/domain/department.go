package domain

import "time"

// Department is an organizational unit inside a branch (sales, PT, ...).
type Department struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Branch is a gym location. Departments are loaded on read.
type Branch struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Departments []Department
}
