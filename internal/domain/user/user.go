package user

import (
	"errors"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleKitchen  Role = "kitchen"
	RoleDriver   Role = "driver"
)

// check to see if the role is a known constant

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleKitchen, RoleDriver:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
)

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	Cep          *string   `json:"cep,omitempty"`
	Rua          *string   `json:"rua,omitempty"`
	Bairro       *string   `json:"bairro,omitempty"`
	Cidade       *string   `json:"cidade,omitempty"`
	Estado       *string   `json:"estado,omitempty"`
	Numero       *string   `json:"numero,omitempty"`
	Complemento  *string   `json:"complemento,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the shape of a user that is allowed to leave the trusted boundary.
// It has no password field at all, so a handler holding a Public value cannot
// leak a hash by accident.
type Public struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Cep         *string   `json:"cep,omitempty"`
	Rua         *string   `json:"rua,omitempty"`
	Bairro      *string   `json:"bairro,omitempty"`
	Cidade      *string   `json:"cidade,omitempty"`
	Estado      *string   `json:"estado,omitempty"`
	Numero      *string   `json:"numero,omitempty"`
	Complemento *string   `json:"complemento,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Redacted returns the public copy of a user, dropping the password hash.
func (u User) Redacted() Public {
	return Public{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        u.Role,
		Cep:         u.Cep,
		Rua:         u.Rua,
		Bairro:      u.Bairro,
		Cidade:      u.Cidade,
		Estado:      u.Estado,
		Numero:      u.Numero,
		Complemento: u.Complemento,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type CreateUserRequest struct {
	FirstName   string  `json:"firstName" binding:"required,min=1,max=256"`
	LastName    string  `json:"lastName" binding:"required,min=1,max=256"`
	Email       string  `json:"email" binding:"required,email"`
	Password    *string `json:"password" binding:"omitempty,min=7"`
	Role        Role    `json:"role" binding:"required,oneof=admin customer kitchen driver"`
	Cep         *string `json:"cep" binding:"omitempty,max=16"`
	Rua         *string `json:"rua" binding:"omitempty,max=256"`
	Bairro      *string `json:"bairro" binding:"omitempty,max=256"`
	Cidade      *string `json:"cidade" binding:"omitempty,max=128"`
	Estado      *string `json:"estado" binding:"omitempty,max=64"`
	Numero      *string `json:"numero" binding:"omitempty,max=16"`
	Complemento *string `json:"complemento" binding:"omitempty,max=256"`
}

// a full update payload, password changes go through /auth/change-password instead.
type UpdateUserRequest struct {
	FirstName   string  `json:"firstName" binding:"required,min=1,max=256"`
	LastName    string  `json:"lastName" binding:"required,min=1,max=256"`
	Email       string  `json:"email" binding:"required,email"`
	Cep         *string `json:"cep" binding:"omitempty,max=16"`
	Rua         *string `json:"rua" binding:"omitempty,max=256"`
	Bairro      *string `json:"bairro" binding:"omitempty,max=256"`
	Cidade      *string `json:"cidade" binding:"omitempty,max=128"`
	Estado      *string `json:"estado" binding:"omitempty,max=64"`
	Numero      *string `json:"numero" binding:"omitempty,max=16"`
	Complemento *string `json:"complemento" binding:"omitempty,max=256"`
}

// with pointers if optional, it will be nil
type ListUsersFilter struct {
	Query  *string
	Limit  int
	Offset int
}
