package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/intervoice/backend/internal/models"
	"github.com/intervoice/backend/internal/services"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newAuthRouter(issuer, audience string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuth(testSecret, issuer, audience), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var gotIdentity services.IdentityClaims
	var gotRole string
	r.GET("/protected", JWTAuth(testSecret, "issuer", "aud"), func(c *gin.Context) {
		v, _ := c.Get("identity")
		gotIdentity, _ = v.(services.IdentityClaims)
		rv, _ := c.Get("role")
		gotRole, _ = rv.(string)
		c.Status(http.StatusOK)
	})

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "auth0|abc",
		"iss":   "issuer",
		"aud":   "aud",
		"email": "dev@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	w := doRequest(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotIdentity.Subject != "auth0|abc" || gotIdentity.Email != "dev@example.com" {
		t.Fatalf("identity not propagated: %+v", gotIdentity)
	}
	if gotRole != "user" {
		t.Fatalf("role = %q, want default user", gotRole)
	}
}

func TestJWTAuthPropagatesRoleClaim(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var gotRole string
	r.GET("/protected", JWTAuth(testSecret, "", ""), RequireAdmin(), func(c *gin.Context) {
		rv, _ := c.Get("role")
		gotRole, _ = rv.(string)
		c.Status(http.StatusOK)
	})

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "auth0|admin",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	w := doRequest(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotRole != "admin" {
		t.Fatalf("role = %q, want admin", gotRole)
	}

	// a plain user is turned away by RequireAdmin
	userToken := signToken(t, testSecret, jwt.MapClaims{
		"sub": "auth0|user",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if w := doRequest(r, "Bearer "+userToken); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestJWTAuthRejections(t *testing.T) {
	r := newAuthRouter("issuer", "aud")

	valid := jwt.MapClaims{
		"sub": "auth0|abc",
		"iss": "issuer",
		"aud": "aud",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", valid)},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": "auth0|abc", "iss": "issuer", "aud": "aud",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
		{"wrong issuer", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": "auth0|abc", "iss": "someone-else", "aud": "aud",
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"wrong audience", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"sub": "auth0|abc", "iss": "issuer", "aud": "other",
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"missing subject", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"iss": "issuer", "aud": "aud",
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := doRequest(r, tc.header); w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}

type stubUserService struct {
	user *models.User
	err  error
}

func (s *stubUserService) SyncFromClaims(context.Context, services.IdentityClaims) (*models.User, error) {
	return s.user, s.err
}

func (s *stubUserService) GetBySubject(context.Context, string) (*models.User, error) {
	return s.user, s.err
}

func TestUserSyncExposesLocalID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	users := &stubUserService{user: &models.User{ID: "local-id-1", SubjectID: "auth0|abc"}}

	var gotUserID string
	r.GET("/protected", JWTAuth(testSecret, "", ""), UserSync(users), func(c *gin.Context) {
		v, _ := c.Get("user_id")
		gotUserID, _ = v.(string)
		c.Status(http.StatusOK)
	})

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "auth0|abc",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	w := doRequest(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotUserID != "local-id-1" {
		t.Fatalf("user_id = %q, want local-id-1", gotUserID)
	}
}
