package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
	"github.com/magnetiq/magnetiq-go/internal/domain/publication"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/filehost"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/performance"
)

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		t.Fatalf("test logger: %v", err)
	}
	return logger
}

func newTestTracker() *performance.Tracker {
	return performance.NewTracker()
}

// fakeSessionRepo is an in-memory SessionRepository keyed by email.
// raceSession simulates a concurrent insert: it stays invisible to
// FindByEmail until Store has failed once, like a row committed between the
// lookup and the insert.
type fakeSessionRepo struct {
	byEmail     map[string]*lead.DownloadSession
	storeErr    error
	refreshErr  error
	raceSession *lead.DownloadSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byEmail: make(map[string]*lead.DownloadSession)}
}

func (r *fakeSessionRepo) FindByID(id string) (*lead.DownloadSession, error) {
	for _, s := range r.byEmail {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindByEmail(email string) (*lead.DownloadSession, error) {
	return r.byEmail[email], nil
}

func (r *fakeSessionRepo) Store(session *lead.DownloadSession) error {
	if r.storeErr != nil {
		return r.storeErr
	}
	if r.raceSession != nil && r.raceSession.Email == session.Email {
		r.byEmail[session.Email] = r.raceSession
		r.raceSession = nil
		return errors.New("UNIQUE constraint failed: download_sessions.email")
	}
	if _, exists := r.byEmail[session.Email]; exists {
		return errors.New("UNIQUE constraint failed: download_sessions.email")
	}
	r.byEmail[session.Email] = session
	return nil
}

func (r *fakeSessionRepo) Refresh(session *lead.DownloadSession) error {
	if r.refreshErr != nil {
		return r.refreshErr
	}
	r.byEmail[session.Email] = session
	return nil
}

func (r *fakeSessionRepo) DeleteExpiredByEmail(email string, now time.Time) error {
	if s, ok := r.byEmail[email]; ok && now.After(s.ExpiresAt) {
		delete(r.byEmail, email)
	}
	return nil
}

func (r *fakeSessionRepo) AppendDownload(sessionID, whitepaperID string) error {
	for _, s := range r.byEmail {
		if s.ID == sessionID {
			if !s.HasDownloaded(whitepaperID) {
				s.WhitepaperIDs = append(s.WhitepaperIDs, whitepaperID)
			}
			return nil
		}
	}
	return errors.New("session not found")
}

func (r *fakeSessionRepo) TouchLastAccessed(sessionID string, at time.Time) error {
	for _, s := range r.byEmail {
		if s.ID == sessionID {
			s.LastAccessedAt = at
		}
	}
	return nil
}

// fakeLinkRepo is an in-memory LinkRepository keyed by token.
type fakeLinkRepo struct {
	byToken map[string]*publication.PublicationLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{byToken: make(map[string]*publication.PublicationLink)}
}

func (r *fakeLinkRepo) FindByToken(token string) (*publication.PublicationLink, error) {
	return r.byToken[token], nil
}

func (r *fakeLinkRepo) Store(link *publication.PublicationLink) error {
	cp := *link
	r.byToken[link.Token] = &cp
	return nil
}

func (r *fakeLinkRepo) MarkRevoked(token string) error {
	if l, ok := r.byToken[token]; ok {
		l.Revoked = true
	}
	return nil
}

func (r *fakeLinkRepo) ListExpiredActive(now time.Time) ([]*publication.PublicationLink, error) {
	var out []*publication.PublicationLink
	for _, l := range r.byToken {
		if !l.Revoked && !l.ExpiresAt.After(now) {
			out = append(out, l)
		}
	}
	return out, nil
}

// fakeWhitepaperRepo is an in-memory WhitepaperRepository.
type fakeWhitepaperRepo struct {
	byID      map[string]*publication.Whitepaper
	downloads map[string]int
}

func newFakeWhitepaperRepo(wps ...*publication.Whitepaper) *fakeWhitepaperRepo {
	r := &fakeWhitepaperRepo{
		byID:      make(map[string]*publication.Whitepaper),
		downloads: make(map[string]int),
	}
	for _, wp := range wps {
		r.byID[wp.ID] = wp
	}
	return r
}

func (r *fakeWhitepaperRepo) FindByID(id string) (*publication.Whitepaper, error) {
	return r.byID[id], nil
}

func (r *fakeWhitepaperRepo) FindBySlug(slug string) (*publication.Whitepaper, error) {
	for _, wp := range r.byID {
		if wp.Slug == slug {
			return wp, nil
		}
	}
	return nil, nil
}

func (r *fakeWhitepaperRepo) List() ([]*publication.Whitepaper, error) {
	var out []*publication.Whitepaper
	for _, wp := range r.byID {
		out = append(out, wp)
	}
	return out, nil
}

func (r *fakeWhitepaperRepo) Store(wp *publication.Whitepaper) error {
	r.byID[wp.ID] = wp
	return nil
}

func (r *fakeWhitepaperRepo) IncrementDownloadCount(id string) error {
	r.downloads[id]++
	return nil
}

// fakeDownloadRepo is an in-memory DownloadRepository. It is
// mutex-protected because the async export path touches it from its own
// goroutine.
type fakeDownloadRepo struct {
	mu      sync.Mutex
	records []*lead.DownloadRecord
}

func (r *fakeDownloadRepo) Store(record *lead.DownloadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records = append(r.records, &cp)
	return nil
}

func (r *fakeDownloadRepo) FindByID(id string) (*lead.DownloadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDownloadRepo) ListRecent(limit int) ([]*lead.DownloadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]*lead.DownloadRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeDownloadRepo) UpdateExportStatus(id, status, exportError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			rec.ExportStatus = status
			rec.ExportError = exportError
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeDownloadRepo) snapshot() []*lead.DownloadRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*lead.DownloadRecord, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

// fakeFileHost records share operations and can be made to fail.
type fakeFileHost struct {
	createErr  error
	deleteErr  error
	created    []string
	deleted    []string
	shareCount int
}

func (f *fakeFileHost) CreateShareLink(ctx context.Context, filePath string, expiresAt time.Time) (*filehost.ShareLink, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.shareCount++
	f.created = append(f.created, filePath)
	return &filehost.ShareLink{
		RemoteToken: "remote-token",
		RemoteURL:   "https://files.example.com/s/remote-token/download",
	}, nil
}

func (f *fakeFileHost) DeleteShareLink(ctx context.Context, remoteToken string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, remoteToken)
	return nil
}

// fakeGateway records exported leads and can be made to fail.
type fakeGateway struct {
	mu       sync.Mutex
	err      error
	exported []*lead.DownloadRecord
}

func (g *fakeGateway) ExportLead(ctx context.Context, record *lead.DownloadRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.exported = append(g.exported, record)
	return nil
}

func (g *fakeGateway) exportCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.exported)
}

// fakeMailer records sent emails.
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMailer) SendWhitepaperLinkEmail(toEmail, whitepaperTitle, linkURL string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return nil
}
