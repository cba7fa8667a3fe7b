package api

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quizflow/internal/errors"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

const (
	userKey                = "api.user"
	participantTokenPrefix = "participant-"
)

// User is the caller identified by the bearer token.
type User struct {
	ID   string
	Role Role
}

// ParticipantToken returns the bearer token a participant authenticates with.
func ParticipantToken(participantID string) string {
	return participantTokenPrefix + participantID
}

type authenticator struct {
	adminToken string
	hostToken  string
}

// authenticate attaches the caller to the request. Requests without a bearer
// token stay anonymous; requests with an unknown token are rejected.
func (a authenticator) authenticate(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.Next()
		return
	}

	var u User
	switch {
	case a.adminToken != "" && token == a.adminToken:
		u = User{ID: "admin-1", Role: RoleAdmin}
	case a.hostToken != "" && token == a.hostToken:
		u = User{ID: "host-1", Role: RoleHost}
	case strings.HasPrefix(token, participantTokenPrefix) && len(token) > len(participantTokenPrefix):
		u = User{ID: strings.TrimPrefix(token, participantTokenPrefix), Role: RoleParticipant}
	default:
		abort(c, errors.Unauthorized(errors.WithMessage("Invalid authentication token.")))
		return
	}

	c.Set(userKey, u)
	c.Next()
}

func requireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c)
		if !ok {
			abort(c, errors.Unauthorized())
			return
		}

		if !slices.Contains(roles, u.Role) {
			abort(c, errors.Forbidden())
			return
		}

		c.Next()
	}
}

func currentUser(c *gin.Context) (User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return User{}, false
	}

	u, ok := v.(User)
	return u, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
