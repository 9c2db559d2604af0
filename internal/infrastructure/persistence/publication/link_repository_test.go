package publication

import (
	"log/slog"
	"testing"
	"time"

	domainpub "github.com/magnetiq/magnetiq-go/internal/domain/publication"
	schema "github.com/magnetiq/magnetiq-go/internal/infrastructure/database"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/persistence/database"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
)

func newTestDB(t *testing.T) (*database.DB, *logging.ChanneledLogger) {
	t.Helper()

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("test logger: %v", err)
	}

	db, err := database.NewConnection("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := schema.NewTableCreator().CreateSchema(db.DB); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db, logger
}

func testLink(token string, expiresAt time.Time) *domainpub.PublicationLink {
	return &domainpub.PublicationLink{
		Token:        token,
		WhitepaperID: "wp-1",
		Email:        "anna@example.com",
		RemoteURL:    "https://files.example.com/s/" + token + "/download",
		RemoteToken:  "remote-" + token,
		IssuedAt:     expiresAt.Add(-7 * 24 * time.Hour),
		ExpiresAt:    expiresAt,
	}
}

func TestLinkRepository(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("store and find round trip", func(t *testing.T) {
		db, logger := newTestDB(t)
		repo := NewSQLLinkRepository(db, logger)

		link := testLink("token-1", now.Add(7*24*time.Hour))
		if err := repo.Store(link); err != nil {
			t.Fatalf("Store() error = %v", err)
		}

		got, err := repo.FindByToken("token-1")
		if err != nil {
			t.Fatalf("FindByToken() error = %v", err)
		}
		if got == nil {
			t.Fatal("FindByToken() = nil")
		}
		if got.RemoteURL != link.RemoteURL || got.RemoteToken != link.RemoteToken {
			t.Errorf("remote fields mismatch: %+v", got)
		}
		if !got.ExpiresAt.Equal(link.ExpiresAt) {
			t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, link.ExpiresAt)
		}
		if got.Revoked {
			t.Error("Revoked = true on fresh link")
		}
	})

	t.Run("unknown token reads as nil", func(t *testing.T) {
		db, logger := newTestDB(t)
		repo := NewSQLLinkRepository(db, logger)

		got, err := repo.FindByToken("missing")
		if err != nil {
			t.Fatalf("FindByToken() error = %v", err)
		}
		if got != nil {
			t.Errorf("FindByToken() = %+v, want nil", got)
		}
	})

	t.Run("mark revoked is idempotent", func(t *testing.T) {
		db, logger := newTestDB(t)
		repo := NewSQLLinkRepository(db, logger)

		if err := repo.Store(testLink("token-1", now.Add(time.Hour))); err != nil {
			t.Fatalf("Store() error = %v", err)
		}

		for i := 0; i < 2; i++ {
			if err := repo.MarkRevoked("token-1"); err != nil {
				t.Fatalf("MarkRevoked() call %d error = %v", i+1, err)
			}
		}

		got, _ := repo.FindByToken("token-1")
		if !got.Revoked {
			t.Error("link not revoked")
		}
	})

	t.Run("expired active listing honors the boundary", func(t *testing.T) {
		db, logger := newTestDB(t)
		repo := NewSQLLinkRepository(db, logger)

		mustStore := func(link *domainpub.PublicationLink) {
			t.Helper()
			if err := repo.Store(link); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
		}
		mustStore(testLink("past", now.Add(-time.Hour)))
		mustStore(testLink("boundary", now))
		mustStore(testLink("future", now.Add(time.Hour)))
		revoked := testLink("already-revoked", now.Add(-time.Hour))
		revoked.Revoked = true
		mustStore(revoked)

		links, err := repo.ListExpiredActive(now)
		if err != nil {
			t.Fatalf("ListExpiredActive() error = %v", err)
		}

		got := make(map[string]bool)
		for _, l := range links {
			got[l.Token] = true
		}
		if len(got) != 2 || !got["past"] || !got["boundary"] {
			t.Errorf("ListExpiredActive() = %v, want past and boundary", got)
		}
	})
}

func TestWhitepaperRepository(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("store, lookup, and counter", func(t *testing.T) {
		db, logger := newTestDB(t)
		repo := NewSQLWhitepaperRepository(db, logger)

		wp := &domainpub.Whitepaper{
			ID:          security.GenerateULID(),
			Slug:        "digital-transformation",
			Title:       "Digital Transformation",
			FilePath:    "/whitepapers/digital-transformation.pdf",
			PublishedAt: now,
		}
		if err := repo.Store(wp); err != nil {
			t.Fatalf("Store() error = %v", err)
		}

		bySlug, err := repo.FindBySlug("digital-transformation")
		if err != nil {
			t.Fatalf("FindBySlug() error = %v", err)
		}
		if bySlug == nil || bySlug.ID != wp.ID {
			t.Fatalf("FindBySlug() = %+v", bySlug)
		}

		for i := 0; i < 3; i++ {
			if err := repo.IncrementDownloadCount(wp.ID); err != nil {
				t.Fatalf("IncrementDownloadCount() error = %v", err)
			}
		}

		byID, err := repo.FindByID(wp.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if byID.DownloadCount != 3 {
			t.Errorf("DownloadCount = %d, want 3", byID.DownloadCount)
		}
	})

	t.Run("increment on unknown whitepaper", func(t *testing.T) {
		db, logger := newTestDB(t)
		repo := NewSQLWhitepaperRepository(db, logger)

		if err := repo.IncrementDownloadCount("missing"); err == nil {
			t.Error("IncrementDownloadCount() error = nil, want not found")
		}
	})
}
