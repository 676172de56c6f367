package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"owner-console/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-unit-tests"

func init() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", testSecret)
}

func makeToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	claims := utils.Claims{
		UserID: "owner-1",
		Email:  "owner@test.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func setupTestRouter() *gin.Engine {
	r := gin.New()

	// Protected endpoint for testing AuthMiddleware
	protected := r.Group("/api")
	protected.Use(AuthMiddleware())
	protected.GET("/test", func(c *gin.Context) {
		userID, _ := c.Get(UserIDKey)
		role, _ := c.Get(UserRoleKey)
		token, _ := c.Get(OwnerTokenKey)
		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"role":    role,
			"token":   token,
		})
	})

	// Owner endpoint for testing OwnerMiddleware
	owner := r.Group("/api/owner")
	owner.Use(AuthMiddleware())
	owner.Use(OwnerMiddleware())
	owner.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "owner access granted"})
	})

	return r
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	router := setupTestRouter()
	token := makeToken(t, utils.OwnerRole, time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	body := parseBody(t, w)
	if body["token"] != token || body["user_id"] != "owner-1" {
		t.Errorf("expected token and user id in context, got %v", body)
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	router := setupTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareMalformedToken(t *testing.T) {
	router := setupTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer not-a-valid-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	router := setupTestRouter()
	expiredToken := makeToken(t, utils.OwnerRole, -time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+expiredToken)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareInvalidFormatNoBearer(t *testing.T) {
	router := setupTestRouter()
	token := makeToken(t, utils.OwnerRole, time.Hour)

	for _, header := range []string{token, "Bearer ", "Basic " + token} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/test", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected status 401, got %d", header, w.Code)
		}
	}
}

func TestOwnerMiddlewareAllowsOwner(t *testing.T) {
	router := setupTestRouter()
	token := makeToken(t, utils.OwnerRole, time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/owner/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOwnerMiddlewareBlocksOtherRoles(t *testing.T) {
	router := setupTestRouter()

	for _, role := range []string{"customer", "admin", ""} {
		token := makeToken(t, role, time.Hour)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/owner/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("role %q: expected status 403, got %d: %s", role, w.Code, w.Body.String())
		}
	}
}

func TestOwnerMiddlewareBlocksNoToken(t *testing.T) {
	router := setupTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/owner/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}
