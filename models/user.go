package models

import "time"

// UserRole представляет роли пользователей, соответствующие ENUM в БД.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleCandidate UserRole = "candidate"
	RoleVoter     UserRole = "voter"
	RoleSpectator UserRole = "spectator"
)

// Valid сообщает, входит ли значение в закрытый набор ролей.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCandidate, RoleVoter, RoleSpectator:
		return true
	default:
		return false
	}
}

// UserStatus представляет статусы учётной записи.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
	UserStatusBlocked  UserStatus = "blocked"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusApproved, UserStatusRejected, UserStatusBlocked:
		return true
	default:
		return false
	}
}

type User struct {
	ID           int        `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Role         UserRole   `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
}
