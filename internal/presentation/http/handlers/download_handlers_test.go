package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magnetiq/magnetiq-go/internal/application/services"
	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/filehost"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
)

type stubLinkRepo struct {
	links map[string]*publication.PublicationLink
}

func (r *stubLinkRepo) FindByToken(token string) (*publication.PublicationLink, error) {
	return r.links[token], nil
}
func (r *stubLinkRepo) Store(link *publication.PublicationLink) error {
	r.links[link.Token] = link
	return nil
}
func (r *stubLinkRepo) MarkRevoked(token string) error {
	if l, ok := r.links[token]; ok {
		l.Revoked = true
	}
	return nil
}
func (r *stubLinkRepo) ListExpiredActive(now time.Time) ([]*publication.PublicationLink, error) {
	return nil, nil
}

type stubWhitepaperRepo struct{}

func (stubWhitepaperRepo) FindByID(string) (*publication.Whitepaper, error)   { return nil, nil }
func (stubWhitepaperRepo) FindBySlug(string) (*publication.Whitepaper, error) { return nil, nil }
func (stubWhitepaperRepo) List() ([]*publication.Whitepaper, error)           { return nil, nil }
func (stubWhitepaperRepo) Store(*publication.Whitepaper) error                { return nil }
func (stubWhitepaperRepo) IncrementDownloadCount(string) error                { return nil }

type stubFileHost struct{}

func (stubFileHost) CreateShareLink(context.Context, string, time.Time) (*filehost.ShareLink, error) {
	return &filehost.ShareLink{RemoteToken: "rt", RemoteURL: "https://files.example.com/s/rt"}, nil
}
func (stubFileHost) DeleteShareLink(context.Context, string) error { return nil }

func newTestRouter(t *testing.T, repo *stubLinkRepo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("test logger: %v", err)
	}

	linkService := services.NewLinkService(repo, stubWhitepaperRepo{}, stubFileHost{}, logger)
	h := NewDownloadHandlers(linkService, logger)

	r := gin.New()
	r.GET("/downloads/:token", h.ResolveLink)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestResolveLink(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubLinkRepo{links: map[string]*publication.PublicationLink{
		"valid": {
			Token:     "valid",
			RemoteURL: "https://files.example.com/s/abc/download",
			ExpiresAt: now.Add(time.Hour),
		},
		"expired": {
			Token:     "expired",
			RemoteURL: "https://files.example.com/s/def/download",
			ExpiresAt: now.Add(-time.Hour),
		},
		"revoked": {
			Token:     "revoked",
			RemoteURL: "https://files.example.com/s/ghi/download",
			ExpiresAt: now.Add(time.Hour),
			Revoked:   true,
		},
	}}
	router := newTestRouter(t, repo)

	t.Run("valid link redirects to file host", func(t *testing.T) {
		w := get(router, "/downloads/valid")
		if w.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "https://files.example.com/s/abc/download" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("failure responses are indistinguishable", func(t *testing.T) {
		baseline := get(router, "/downloads/never-existed")
		if baseline.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", baseline.Code)
		}

		for _, token := range []string{"expired", "revoked"} {
			w := get(router, "/downloads/"+token)
			if w.Code != baseline.Code {
				t.Errorf("%s: status = %d, want %d", token, w.Code, baseline.Code)
			}
			if w.Body.String() != baseline.Body.String() {
				t.Errorf("%s: body %q differs from unknown-token body %q", token, w.Body.String(), baseline.Body.String())
			}
			if got, want := w.Header().Get("Content-Type"), baseline.Header().Get("Content-Type"); got != want {
				t.Errorf("%s: content type %q differs from %q", token, got, want)
			}
		}
	})
}
