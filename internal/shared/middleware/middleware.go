package middleware

import (
	"net/http"
	"strings"

	"dejair/internal/actors"
	"dejair/internal/shared/config"
	"dejair/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// actorContextKey is the gin context key the resolved actor is stored under.
const actorContextKey = "actor"

type jwtClaims struct {
	ActorID      string `json:"actor_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	IsSuperadmin bool   `json:"is_superadmin"`
	Type         string `json:"type"`
	jwt.RegisteredClaims
}

// JWTAuth validates the bearer token and resolves the acting party into an
// actors.Actor, stored once in the request context. Handlers and services
// receive the tagged actor instead of looking the caller up again.
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})

		if err != nil || !token.Valid {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		if claims.Type != "access" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid token type", nil, nil)
			c.Abort()
			return
		}

		actorID, err := uuid.Parse(claims.ActorID)
		if err != nil || !actors.IsValidRole(claims.Role) {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "malformed token claims", nil, nil)
			c.Abort()
			return
		}

		var actor actors.Actor
		if claims.Role == string(actors.RoleAdmin) {
			actor = actors.NewAdminActor(actorID, claims.IsSuperadmin)
		} else {
			actor = actors.NewClientActor(actorID)
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the actor resolved by JWTAuth.
func ActorFromContext(c *gin.Context) (actors.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return actors.Actor{}, false
	}
	actor, ok := value.(actors.Actor)
	return actor, ok
}

// RequireAdmin rejects requests whose actor is not an admin
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "actor not found in context", nil, nil)
			c.Abort()
			return
		}

		if !actor.IsAdmin() {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireSuperadmin rejects requests whose actor is not a superadmin
func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "actor not found in context", nil, nil)
			c.Abort()
			return
		}

		if !actor.IsAdmin() || !actor.IsSuperadmin {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
