package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/transport"
	"github.com/frahmantamala/finance-ops/pkg/logger"
)

// ActorClaims is the token body issued by the identity provider.
type ActorClaims struct {
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

func (c *ActorClaims) Actor() internal.Actor {
	return internal.Actor{
		ID:          c.Subject,
		Name:        c.Name,
		Email:       c.Email,
		Permissions: c.Permissions,
	}
}

// ParseActorToken verifies an HS256 token signed with secret. A non-empty
// issuer must match the iss claim.
func ParseActorToken(tokenString string, secret []byte, issuer string) (*ActorClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &ActorClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.NewUnauthorizedError("token expired", internal.ErrCodeTokenExpired).WithCause(err)
		}
		return nil, internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken).WithCause(err)
	}
	if claims.Subject == "" {
		return nil, internal.NewUnauthorizedError("token has no subject", internal.ErrCodeInvalidToken)
	}
	return claims, nil
}

// Authenticate resolves the bearer token into an internal.Actor on the
// request context. Requests without a valid token get a 401.
func Authenticate(secret, issuer string, lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.ExtractTokenFromHeader(r)
			if token == "" {
				base.HandleServiceError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
				return
			}

			claims, err := ParseActorToken(token, key, issuer)
			if err != nil {
				lg.Warn("actor token rejected", "error", err, "path", r.URL.Path)
				base.HandleServiceError(w, err)
				return
			}

			actor := claims.Actor()
			ctx := internal.ContextWithActor(r.Context(), actor)
			ctx = logger.With(ctx, "actor_id", actor.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
