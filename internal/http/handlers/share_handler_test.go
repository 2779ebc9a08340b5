package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/services"
)

// shareHandlers builds a Handlers whose share service is the given stub.
func shareHandlers(share ShareService) *Handlers {
	return New(stubConvSvc{}, stubRoleSvc{}, share, stubDocSvc{}, stubUserSvc{})
}

func TestShareConversation_UUID_NotFound_Forbidden_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	post := func(h *Handlers, path string) *httptest.ResponseRecorder {
		r := gin.New()
		r.POST("/conversations/:id/share", h.ShareConversation)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		return w
	}

	// bad UUID -> 400
	if w := post(shareHandlers(stubShareSvc{}), "/conversations/not-uuid/share"); w.Code != http.StatusBadRequest {
		t.Fatalf("uuid 400 -> %d", w.Code)
	}

	// unknown conversation -> 404
	{
		svc := stubShareSvc{
			publish: func(context.Context, string, string) (*services.ShareLink, error) {
				return nil, services.ErrConversationNotFound
			},
		}
		if w := post(shareHandlers(svc), "/conversations/"+uuid.NewString()+"/share"); w.Code != http.StatusNotFound {
			t.Fatalf("not found -> %d", w.Code)
		}
	}

	// someone else's conversation -> 403, not 404
	{
		svc := stubShareSvc{
			publish: func(context.Context, string, string) (*services.ShareLink, error) {
				return nil, services.ErrShareForbidden
			},
		}
		w := post(shareHandlers(svc), "/conversations/"+uuid.NewString()+"/share")
		if w.Code != http.StatusForbidden {
			t.Fatalf("forbidden -> %d", w.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		if body.Code != ErrCodeForbidden {
			t.Fatalf("code = %q", body.Code)
		}
	}

	// success -> 200 with link
	{
		convID := uuid.NewString()
		var gotID, gotUser string
		svc := stubShareSvc{
			publish: func(ctx context.Context, id, u string) (*services.ShareLink, error) {
				gotID, gotUser = id, u
				return &services.ShareLink{
					ShareID:  "a1b2c3d4",
					ShareURL: "https://app.example.com/partage/a1b2c3d4",
					IsPublic: true,
				}, nil
			},
		}
		w := post(shareHandlers(svc), "/conversations/"+convID+"/share")
		if w.Code != http.StatusOK {
			t.Fatalf("share 200 -> %d body=%s", w.Code, w.Body.String())
		}
		if gotID != convID || gotUser != "u1" {
			t.Fatalf("service args mismatch: %q %q", gotID, gotUser)
		}
		var out services.ShareLink
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.ShareID != "a1b2c3d4" || !out.IsPublic || out.ShareURL != "https://app.example.com/partage/a1b2c3d4" {
			t.Fatalf("unexpected link: %#v", out)
		}
	}
}

func TestUnshareConversation_Forbidden_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	del := func(h *Handlers, path string) *httptest.ResponseRecorder {
		r := gin.New()
		r.DELETE("/conversations/:id/share", h.UnshareConversation)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		return w
	}

	// bad UUID -> 400
	if w := del(shareHandlers(stubShareSvc{}), "/conversations/not-uuid/share"); w.Code != http.StatusBadRequest {
		t.Fatalf("uuid 400 -> %d", w.Code)
	}

	// forbidden -> 403
	{
		svc := stubShareSvc{
			revoke: func(context.Context, string, string) error { return services.ErrShareForbidden },
		}
		if w := del(shareHandlers(svc), "/conversations/"+uuid.NewString()+"/share"); w.Code != http.StatusForbidden {
			t.Fatalf("forbidden -> %d", w.Code)
		}
	}

	// not found -> 404
	{
		svc := stubShareSvc{
			revoke: func(context.Context, string, string) error { return services.ErrConversationNotFound },
		}
		if w := del(shareHandlers(svc), "/conversations/"+uuid.NewString()+"/share"); w.Code != http.StatusNotFound {
			t.Fatalf("not found -> %d", w.Code)
		}
	}

	// success -> 204
	if w := del(shareHandlers(stubShareSvc{}), "/conversations/"+uuid.NewString()+"/share"); w.Code != http.StatusNoContent {
		t.Fatalf("204 -> %d", w.Code)
	}
}

func TestGetPublicConversation_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// unknown or revoked identifier -> 404
	{
		svc := stubShareSvc{
			getPublic: func(context.Context, string) (*domain.Conversation, error) {
				return nil, services.ErrConversationNotFound
			},
		}
		h := shareHandlers(svc)
		r := gin.New()
		r.GET("/public/conversations/:shareId", h.GetPublicConversation)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/public/conversations/unknown1", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("not found -> %d", w.Code)
		}
	}

	// published conversation is readable without auth
	{
		var gotShareID string
		svc := stubShareSvc{
			getPublic: func(ctx context.Context, shareID string) (*domain.Conversation, error) {
				gotShareID = shareID
				return &domain.Conversation{ID: "c1", Title: "Partagée", IsPublic: true}, nil
			},
		}
		h := shareHandlers(svc)
		r := gin.New()
		r.GET("/public/conversations/:shareId", h.GetPublicConversation)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/public/conversations/a1b2c3d4", nil)
		// no X-User-ID on purpose
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("public read 200 -> %d body=%s", w.Code, w.Body.String())
		}
		if gotShareID != "a1b2c3d4" {
			t.Fatalf("share id = %q", gotShareID)
		}
		var out domain.Conversation
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.ID != "c1" || !out.IsPublic {
			t.Fatalf("unexpected conversation: %#v", out)
		}
	}
}
