package domain

// AuthContext identifies the authenticated caller for the lifetime of one request.
type AuthContext struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func NewAuthContext(u *User) *AuthContext {
	return &AuthContext{
		UserID: u.UserID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}
}
