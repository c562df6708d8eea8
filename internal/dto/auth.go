package dto

import "strings"

// SignupRequest represents the request to create an account
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// Validate validates the SignupRequest
func (r *SignupRequest) Validate() (bool, string) {
	if !strings.Contains(r.Email, "@") {
		return false, "A valid email is required"
	}
	if len(r.Password) < 8 {
		return false, "Password must be at least 8 characters"
	}
	if len(r.Password) > 72 {
		return false, "Password must be at most 72 characters"
	}
	if strings.TrimSpace(r.Name) == "" {
		return false, "Name is required"
	}
	return true, ""
}

// LoginRequest represents the request to authenticate
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Validate validates the LoginRequest
func (r *LoginRequest) Validate() (bool, string) {
	if r.Email == "" {
		return false, "Email is required"
	}
	if r.Password == "" {
		return false, "Password is required"
	}
	return true, ""
}

// AuthResponse carries the issued token and the authenticated user
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// UserResponse represents a user without credentials
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}
