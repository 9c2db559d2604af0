package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
)

func newTestLinkService(t *testing.T, repo *fakeLinkRepo, wps *fakeWhitepaperRepo, host *fakeFileHost, now time.Time) *LinkService {
	t.Helper()
	svc := NewLinkService(repo, wps, host, newTestLogger(t))
	svc.now = func() time.Time { return now }
	return svc
}

func testWhitepaper() *publication.Whitepaper {
	return &publication.Whitepaper{
		ID:       "wp-1",
		Slug:     "digital-transformation",
		Title:    "Digital Transformation",
		FilePath: "/whitepapers/digital-transformation.pdf",
	}
}

func TestLinkIssue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("issues link with validity window", func(t *testing.T) {
		repo := newFakeLinkRepo()
		host := &fakeFileHost{}
		svc := newTestLinkService(t, repo, newFakeWhitepaperRepo(testWhitepaper()), host, now)

		link, err := svc.IssueLink(ctx, "wp-1", "Anna@Example.com", 7)
		if err != nil {
			t.Fatalf("IssueLink() error = %v", err)
		}
		if want := now.Add(7 * 24 * time.Hour); !link.ExpiresAt.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", link.ExpiresAt, want)
		}
		if link.Email != "anna@example.com" {
			t.Errorf("Email = %q, want normalized", link.Email)
		}
		if link.RemoteURL == "" || link.RemoteToken == "" {
			t.Error("remote share fields not populated")
		}
		if len(host.created) != 1 {
			t.Errorf("remote shares created = %d, want 1", len(host.created))
		}
		if repo.byToken[link.Token] == nil {
			t.Error("link not persisted")
		}
	})

	t.Run("token is long and unpredictable", func(t *testing.T) {
		repo := newFakeLinkRepo()
		svc := newTestLinkService(t, repo, newFakeWhitepaperRepo(testWhitepaper()), &fakeFileHost{}, now)

		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			link, err := svc.IssueLink(ctx, "wp-1", "anna@example.com", 7)
			if err != nil {
				t.Fatalf("IssueLink() error = %v", err)
			}
			// 24 random bytes base64url-encode to 32 characters.
			if len(link.Token) < 32 {
				t.Fatalf("token length = %d, want >= 32", len(link.Token))
			}
			if seen[link.Token] {
				t.Fatal("duplicate token issued")
			}
			seen[link.Token] = true
		}
	})

	t.Run("re-issue leaves earlier links usable", func(t *testing.T) {
		repo := newFakeLinkRepo()
		svc := newTestLinkService(t, repo, newFakeWhitepaperRepo(testWhitepaper()), &fakeFileHost{}, now)

		first, _ := svc.IssueLink(ctx, "wp-1", "anna@example.com", 7)
		second, _ := svc.IssueLink(ctx, "wp-1", "anna@example.com", 7)

		if first.Token == second.Token {
			t.Fatal("re-issue reused the token")
		}
		for _, tok := range []string{first.Token, second.Token} {
			if _, err := svc.Resolve(tok); err != nil {
				t.Errorf("Resolve(%q) error = %v, want both links usable", tok, err)
			}
		}
	})

	t.Run("remote share failure aborts issuance", func(t *testing.T) {
		repo := newFakeLinkRepo()
		host := &fakeFileHost{createErr: errors.New("file host down")}
		svc := newTestLinkService(t, repo, newFakeWhitepaperRepo(testWhitepaper()), host, now)

		if _, err := svc.IssueLink(ctx, "wp-1", "anna@example.com", 7); err == nil {
			t.Fatal("IssueLink() error = nil, want failure")
		}
		if len(repo.byToken) != 0 {
			t.Error("link persisted despite remote failure")
		}
	})

	t.Run("unknown whitepaper", func(t *testing.T) {
		svc := newTestLinkService(t, newFakeLinkRepo(), newFakeWhitepaperRepo(), &fakeFileHost{}, now)

		_, err := svc.IssueLink(ctx, "missing", "anna@example.com", 7)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestLinkResolve(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	repo := newFakeLinkRepo()
	svc := newTestLinkService(t, repo, newFakeWhitepaperRepo(testWhitepaper()), &fakeFileHost{}, now)

	link, err := svc.IssueLink(ctx, "wp-1", "anna@example.com", 7)
	if err != nil {
		t.Fatalf("IssueLink() error = %v", err)
	}

	t.Run("valid link resolves to remote URL", func(t *testing.T) {
		url, err := svc.Resolve(link.Token)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if url != link.RemoteURL {
			t.Errorf("Resolve() = %q, want %q", url, link.RemoteURL)
		}
	})

	t.Run("valid just before expiry", func(t *testing.T) {
		svc.now = func() time.Time { return link.ExpiresAt.Add(-time.Hour) }
		if _, err := svc.Resolve(link.Token); err != nil {
			t.Errorf("Resolve() error = %v, want usable at 6d23h", err)
		}
	})

	t.Run("expired just past expiry", func(t *testing.T) {
		svc.now = func() time.Time { return link.ExpiresAt.Add(time.Second) }
		if _, err := svc.Resolve(link.Token); !errors.Is(err, domain.ErrLinkExpired) {
			t.Errorf("error = %v, want ErrLinkExpired", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		svc.now = func() time.Time { return now }
		if _, err := svc.Resolve("no-such-token"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("revoked token", func(t *testing.T) {
		svc.now = func() time.Time { return now }
		if err := svc.Revoke(ctx, link.Token); err != nil {
			t.Fatalf("Revoke() error = %v", err)
		}
		if _, err := svc.Resolve(link.Token); !errors.Is(err, domain.ErrLinkRevoked) {
			t.Errorf("error = %v, want ErrLinkRevoked", err)
		}
	})
}

func TestLinkRevoke(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("remote delete failure still revokes locally", func(t *testing.T) {
		repo := newFakeLinkRepo()
		host := &fakeFileHost{}
		svc := newTestLinkService(t, repo, newFakeWhitepaperRepo(testWhitepaper()), host, now)

		link, _ := svc.IssueLink(ctx, "wp-1", "anna@example.com", 7)
		host.deleteErr = errors.New("file host down")

		if err := svc.Revoke(ctx, link.Token); err != nil {
			t.Fatalf("Revoke() error = %v, remote failure must not block", err)
		}
		if !repo.byToken[link.Token].Revoked {
			t.Error("link not revoked locally")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		svc := newTestLinkService(t, newFakeLinkRepo(), newFakeWhitepaperRepo(), &fakeFileHost{}, now)
		if err := svc.Revoke(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}
