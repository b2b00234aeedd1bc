package httpdto

// RegisterRequest is used for POST /v1/auth/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is used for POST /v1/auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is used for POST /v1/auth/refresh
type RefreshRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest is used for POST /v1/auth/logout
type LogoutRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// AuthUserDTO represents the authenticated user in auth responses
type AuthUserDTO struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	IsAdmin  bool     `json:"is_admin"`
	Groups   []string `json:"groups,omitempty"`
}

// AuthResponse is returned after register, login and refresh
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresIn    int64       `json:"expires_in"`
	SessionID    string      `json:"session_id"`
	User         AuthUserDTO `json:"user"`
}
