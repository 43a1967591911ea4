package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/intervoice/backend/internal/services"
	"github.com/intervoice/backend/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// identityClaims mirrors what the external identity provider signs into its
// access tokens. Profile attributes ride along so the backend can refresh
// the local user row without a second call to the provider.
type identityClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Role    string `json:"role"`
}

// JWTAuth verifies the provider-issued bearer token and stashes the claims
// for UserSync. Authentication itself is fully delegated; this middleware
// only checks the signature and the standard claims.
func JWTAuth(secret, issuer, audience string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		claims := &identityClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || tok == nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid token",
			})
			return
		}

		if issuer != "" && claims.Issuer != issuer {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid token issuer",
			})
			return
		}

		if audience != "" {
			valid := false
			for _, aud := range claims.Audience {
				if aud == audience {
					valid = true
					break
				}
			}
			if !valid {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
					Code:    utils.CodeUnauthorized,
					Message: "invalid token audience",
				})
				return
			}
		}

		if claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing subject",
			})
			return
		}

		role := claims.Role
		if role == "" {
			role = "user"
		}

		c.Set("identity", services.IdentityClaims{
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
			Picture: claims.Picture,
		})
		c.Set("role", role)
		c.Next()
	}
}

// UserSync upserts the local user row from the verified claims and exposes
// the stable local id to handlers. Runs after JWTAuth.
func UserSync(users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("identity")
		claims, _ := v.(services.IdentityClaims)
		if !ok || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "unauthorized",
			})
			return
		}

		u, err := users.SyncFromClaims(c.Request.Context(), claims)
		if err != nil {
			c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{
				Code:    utils.CodeInternal,
				Message: "failed to resolve user",
			})
			return
		}

		c.Set("user_id", u.ID)
		c.Next()
	}
}
