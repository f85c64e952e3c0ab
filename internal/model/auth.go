package model

type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=128"`
	Role     Role   `json:"role,omitempty" form:"role" validate:"omitempty,oneof=USER ADMIN"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenClaims is what both token kinds carry.
type TokenClaims struct {
	UserID string
	Role   Role
}

// LoginResult is returned by login and refresh. RefreshToken goes to the
// cookie, never to the JSON body.
type LoginResult struct {
	User         PublicUser
	AccessToken  string
	RefreshToken string
}

type AuthResponse struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}
