package user

import (
	"errors"
	"time"
)

const privilegeMessage = "The user doesn't have enough privileges"

type CreateUserDTO struct {
	Email       string  `json:"email"        binding:"required,email,max=255"`
	Password    string  `json:"password"     binding:"required,min=8,max=128"`
	FullName    *string `json:"full_name"    binding:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
}

type RegisterDTO struct {
	Email    string  `json:"email"     binding:"required,email,max=255"`
	Password string  `json:"password"  binding:"required,min=8,max=128"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
}

type UpdateUserDTO struct {
	Email       *string `json:"email"        binding:"omitempty,email,max=255"`
	Password    *string `json:"password"     binding:"omitempty,min=8,max=128"`
	FullName    *string `json:"full_name"    binding:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

type UpdateMeDTO struct {
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	Email    *string `json:"email"     binding:"omitempty,email,max=255"`
	Locale   *string `json:"locale"    binding:"omitempty,oneof=en zh"`
}

type UpdatePasswordDTO struct {
	CurrentPassword string `json:"current_password" binding:"required,min=8,max=128"`
	NewPassword     string `json:"new_password"     binding:"required,min=8,max=128"`
}

// CreateParams is what every account creation path (admin, signup, WeChat,
// local bootstrap) hands to Service.Create.
type CreateParams struct {
	Email       string
	Password    string
	FullName    *string
	IsActive    bool
	IsSuperuser bool
}

// Public is the outward shape of a user.
type Public struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	IsActive      bool      `json:"is_active"`
	IsSuperuser   bool      `json:"is_superuser"`
	FullName      *string   `json:"full_name"`
	Locale        string    `json:"locale"`
	AvatarURL     *string   `json:"avatar_url"`
	AvatarVersion int       `json:"avatar_version"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	ErrEmailExists       = errors.New("email already registered")
	errIncorrectPassword = errors.New("incorrect password")
	errSamePassword      = errors.New("new password equals current password")
)

func userCreateParams(dto *CreateUserDTO) CreateParams {
	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	return CreateParams{
		Email:       dto.Email,
		Password:    dto.Password,
		FullName:    dto.FullName,
		IsActive:    active,
		IsSuperuser: dto.IsSuperuser,
	}
}
