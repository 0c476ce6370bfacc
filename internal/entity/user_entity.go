package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserStatus string
type UserGender string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"

	UserGenderFemale  UserGender = "female"
	UserGenderMale    UserGender = "male"
	UserGenderUnknown UserGender = "unknown"
)

type User struct {
	Id           uuid.UUID
	Email        string
	PasswordHash *string
	FullName     string
	Gender       UserGender
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
