package login

import "errors"

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ResetPasswordDTO struct {
	Token       string `json:"token"        binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

var (
	errBadCredentials = errors.New("incorrect email or password")
	errInactive       = errors.New("inactive user")
	errUnknownEmail   = errors.New("unknown email")
	errInvalidToken   = errors.New("invalid token")
)
