package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID        int
	FirstName string
	LastName  string
	Email     string
	Role      Role
	Score     int
	IsActive  bool
	CreatedAt time.Time
}

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*User, error)
}
