package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(GetJWTSecret())
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func sessionClaims(role, region string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    uuid.NewString(),
		"role":   role,
		"region": region,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
}

func protectedRouter(allowedRoles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", RequireRole(allowedRoles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":     c.GetString("userID"),
			"role":   c.GetString("userRole"),
			"region": c.GetString("userRegion"),
		})
	})
	return router
}

func TestRequireRoleAcceptsBearerToken(t *testing.T) {
	router := protectedRouter("admin")
	claims := sessionClaims("admin", "NOLA")
	token := signTestToken(t, claims)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, claims["sub"].(string)) || !strings.Contains(body, "NOLA") {
		t.Errorf("claims not propagated to the request context: %s", body)
	}
}

func TestRequireRoleAcceptsSessionCookie(t *testing.T) {
	router := protectedRouter("user")
	token := signTestToken(t, sessionClaims("user", "SOLA"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireRoleRejectsMissingAuthorization(t *testing.T) {
	router := protectedRouter("admin")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Authorization is missing") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireRoleRejectsMalformedHeader(t *testing.T) {
	router := protectedRouter("admin")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abcdef")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid authorization format") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireRoleRejectsBadSignature(t *testing.T) {
	router := protectedRouter("admin")
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims("admin", "NOLA")).
		SignedString([]byte("not-the-real-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid or expired token") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireRoleRejectsExpiredToken(t *testing.T) {
	router := protectedRouter("admin")
	claims := sessionClaims("admin", "NOLA")
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	token := signTestToken(t, claims)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireRoleRejectsUnsignedToken(t *testing.T) {
	router := protectedRouter("admin")
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims("admin", "NOLA")).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireRoleEnforcesAllowedRoles(t *testing.T) {
	router := protectedRouter("admin", "super-admin")
	token := signTestToken(t, sessionClaims("user", "NOLA"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Access denied: insufficient permissions") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}
