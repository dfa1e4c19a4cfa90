package dto

// LoginRequest represents the credentials posted to /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"teacher01"`
	Password string `json:"password" binding:"required" example:"secret"`
}
