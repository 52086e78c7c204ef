package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/services"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const actorKey contextKey = "actor"

// BlacklistKey is where revoked tokens are recorded by the identity provider.
func BlacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}

// Auth validates bearer tokens and puts the caller's identity on the
// request context. Revocation is only checked when a Redis client is set.
type Auth struct {
	secret []byte
	redis  *redis.Client
	logger *zap.Logger
}

func NewAuth(secret string, redisClient *redis.Client, logger *zap.Logger) *Auth {
	return &Auth{
		secret: []byte(secret),
		redis:  redisClient,
		logger: logger,
	}
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			services.SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			services.SendErrorResponse(w, "Invalid authorization header format", http.StatusUnauthorized, nil)
			return
		}
		token := parts[1]

		actor, err := a.validateToken(token)
		if err != nil {
			a.logger.Debug("rejected token", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
			return
		}

		if a.redis != nil {
			revoked, err := a.redis.Exists(r.Context(), BlacklistKey(token)).Result()
			if err != nil {
				a.logger.Warn("token revocation check failed", zap.Error(err))
			} else if revoked > 0 {
				services.SendErrorResponse(w, "Token revoked", http.StatusUnauthorized, nil)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (a *Auth) validateToken(tokenString string) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, err
	}
	if !token.Valid {
		return models.Actor{}, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, errors.New("unexpected claims type")
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	actor := models.Actor{ID: userID, Role: models.Role(role)}
	if actor.ID == "" {
		return models.Actor{}, errors.New("missing user_id claim")
	}
	if !actor.Role.Valid() {
		return models.Actor{}, fmt.Errorf("unknown role %q", role)
	}
	return actor, nil
}

// RequireRole lets only callers holding one of roles through.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
		})
	}
}

func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	return actor, ok
}
