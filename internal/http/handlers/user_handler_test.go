package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
)

// userHandlers builds a Handlers whose user service is the given stub.
func userHandlers(user UserService) *Handlers {
	return New(stubConvSvc{}, stubRoleSvc{}, stubShareSvc{}, stubDocSvc{}, user)
}

func TestMe_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := userHandlers(stubUserSvc{})
	r := gin.New()
	r.GET("/users/me", h.Me)

	// no auth context, no fallback header
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated -> %d", w.Code)
	}
}

func TestMe_EnsuresFromClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got struct{ id, email, username string }
	svc := stubUserSvc{
		ensure: func(ctx context.Context, id, email, username string) (*domain.User, error) {
			got.id, got.email, got.username = id, email, username
			return &domain.User{ID: id, Email: email, Username: username}, nil
		},
	}
	h := userHandlers(svc)

	r := gin.New()
	// simulate the auth middleware stashing claims
	r.Use(func(c *gin.Context) {
		c.Set("userID", "auth0|abc")
		c.Set("email", "a@example.com")
		c.Set("username", "ada")
		c.Next()
	})
	r.GET("/users/me", h.Me)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("me 200 -> %d body=%s", w.Code, w.Body.String())
	}
	if got.id != "auth0|abc" || got.email != "a@example.com" || got.username != "ada" {
		t.Fatalf("claims not forwarded: %+v", got)
	}
	var out domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.ID != "auth0|abc" {
		t.Fatalf("unexpected user: %#v", out)
	}
}

func TestMe_EnsureError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := stubUserSvc{
		ensure: func(context.Context, string, string, string) (*domain.User, error) {
			return nil, context.DeadlineExceeded
		},
	}
	h := userHandlers(svc)
	r := gin.New()
	r.GET("/users/me", h.Me)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("ensure error -> %d", w.Code)
	}
}
