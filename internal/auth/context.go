package auth

import "github.com/franciscosanchezn/gin-cookbook-api/internal/models"

// AuthContext identifies the caller of a request. It is built by the
// middleware from a verified bearer token and handed to services explicitly.
type AuthContext struct {
	UserID   uint
	Role     string
	ClientID string
	Scopes   string
}

// Anonymous is the zero AuthContext used for unauthenticated callers
var Anonymous = AuthContext{}

func (a AuthContext) IsAuthenticated() bool {
	return a.UserID != 0
}

func (a AuthContext) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Owns reports whether the caller is the given user
func (a AuthContext) Owns(userID uint) bool {
	return a.IsAuthenticated() && a.UserID == userID
}
