package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/domain/lead"
)

type captureFixture struct {
	svc         *CaptureService
	sessionRepo *fakeSessionRepo
	linkRepo    *fakeLinkRepo
	wpRepo      *fakeWhitepaperRepo
	downloads   *fakeDownloadRepo
	host        *fakeFileHost
	gateway     *fakeGateway
	mailer      *fakeMailer
}

func newCaptureFixture(t *testing.T, now time.Time) *captureFixture {
	t.Helper()
	logger := newTestLogger(t)
	tracker := newTestTracker()

	f := &captureFixture{
		sessionRepo: newFakeSessionRepo(),
		linkRepo:    newFakeLinkRepo(),
		wpRepo:      newFakeWhitepaperRepo(testWhitepaper()),
		downloads:   &fakeDownloadRepo{},
		host:        &fakeFileHost{},
		gateway:     &fakeGateway{},
		mailer:      &fakeMailer{},
	}

	sessions := NewSessionService(f.sessionRepo, 90, logger)
	sessions.now = func() time.Time { return now }
	links := NewLinkService(f.linkRepo, f.wpRepo, f.host, logger)
	links.now = func() time.Time { return now }
	scoring := NewScoringService([]string{"manufacturing"})
	export := NewExportService(f.downloads, f.gateway, time.Second, logger)

	f.svc = NewCaptureService(sessions, links, scoring, export, f.downloads, f.wpRepo, f.mailer, logger, tracker)
	f.svc.now = func() time.Time { return now }
	return f
}

func validRequest() *CaptureRequest {
	return &CaptureRequest{
		WhitepaperID:   "wp-1",
		FirstName:      "Anna",
		Email:          "Anna@Acme-Corp.de",
		Company:        "Acme Corp",
		PrivacyConsent: true,
		TermsAccepted:  true,
	}
}

func TestCaptureSubmit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newCaptureFixture(t, now)

		result, err := f.svc.Submit(ctx, validRequest())
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if !result.IsNewSession {
			t.Error("IsNewSession = false, want true")
		}
		if result.SessionToken == "" {
			t.Error("SessionToken empty")
		}
		if result.Session.Email != "anna@acme-corp.de" {
			t.Errorf("session email = %q, want normalized", result.Session.Email)
		}
		records := f.downloads.snapshot()
		if len(records) != 1 {
			t.Fatalf("download records = %d, want 1", len(records))
		}
		record := records[0]
		if record.ExportStatus != lead.ExportPending && record.ExportStatus != lead.ExportSuccess {
			t.Errorf("ExportStatus = %q, want pending or success", record.ExportStatus)
		}
		if record.LeadScore != scoreCorporateDomain {
			t.Errorf("LeadScore = %d, want %d", record.LeadScore, scoreCorporateDomain)
		}
		if len(f.linkRepo.byToken) != 1 {
			t.Errorf("links issued = %d, want 1", len(f.linkRepo.byToken))
		}
		if f.wpRepo.downloads["wp-1"] != 1 {
			t.Errorf("download count = %d, want 1", f.wpRepo.downloads["wp-1"])
		}
	})

	t.Run("validation failures abort before any persistence", func(t *testing.T) {
		f := newCaptureFixture(t, now)

		req := validRequest()
		req.FirstName = ""
		req.Email = "broken"

		_, err := f.svc.Submit(ctx, req)
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("error = %v, want ValidationError", err)
		}
		for _, field := range []string{"firstName", "email"} {
			if _, ok := validationErr.Fields[field]; !ok {
				t.Errorf("Fields missing %q: %v", field, validationErr.Fields)
			}
		}
		if len(f.sessionRepo.byEmail) != 0 || len(f.downloads.snapshot()) != 0 || len(f.linkRepo.byToken) != 0 {
			t.Error("state persisted despite validation failure")
		}
	})

	t.Run("missing consent flags are recorded, not enforced", func(t *testing.T) {
		f := newCaptureFixture(t, now)

		req := validRequest()
		req.PrivacyConsent = false
		req.MarketingConsent = false

		result, err := f.svc.Submit(ctx, req)
		if err != nil {
			t.Fatalf("Submit() without consent flags error = %v, want success", err)
		}
		if result.Record.PrivacyConsent || result.Record.MarketingConsent {
			t.Errorf("consent flags = privacy %t, marketing %t, want both recorded as false",
				result.Record.PrivacyConsent, result.Record.MarketingConsent)
		}
		records := f.downloads.snapshot()
		if len(records) != 1 || records[0].PrivacyConsent {
			t.Errorf("persisted records = %+v, want one with privacy consent false", records)
		}
	})

	t.Run("missing terms acceptance blocks capture", func(t *testing.T) {
		f := newCaptureFixture(t, now)

		req := validRequest()
		req.TermsAccepted = false

		_, err := f.svc.Submit(ctx, req)
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("error = %v, want ValidationError", err)
		}
		if _, ok := validationErr.Fields["termsAccepted"]; !ok {
			t.Errorf("Fields = %v, want termsAccepted", validationErr.Fields)
		}
	})

	t.Run("unknown whitepaper persists nothing", func(t *testing.T) {
		f := newCaptureFixture(t, now)

		req := validRequest()
		req.WhitepaperID = "missing"

		_, err := f.svc.Submit(ctx, req)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
		if len(f.sessionRepo.byEmail) != 0 || len(f.downloads.snapshot()) != 0 {
			t.Error("state persisted for unknown whitepaper")
		}
	})

	t.Run("second submission reuses session and bumps engagement", func(t *testing.T) {
		g := newCaptureFixture(t, now)
		second := testWhitepaper()
		second.ID = "wp-2"
		second.Slug = "supply-chain"
		g.wpRepo.byID["wp-2"] = second

		first, err := g.svc.Submit(ctx, validRequest())
		if err != nil {
			t.Fatalf("first Submit() error = %v", err)
		}

		req := validRequest()
		req.WhitepaperID = "wp-2"
		result, err := g.svc.Submit(ctx, req)
		if err != nil {
			t.Fatalf("second Submit() error = %v", err)
		}
		if result.IsNewSession {
			t.Error("IsNewSession = true on repeat, want false")
		}
		if result.Session.ID != first.Session.ID {
			t.Error("repeat submission created a new session")
		}
		if len(result.Session.WhitepaperIDs) != 2 {
			t.Errorf("WhitepaperIDs = %v, want both downloads", result.Session.WhitepaperIDs)
		}

		record := g.downloads.snapshot()[1]
		want := scoreCorporateDomain + scoreRepeatDownloader
		if record.LeadScore != want {
			t.Errorf("LeadScore = %d, want %d with engagement bonus", record.LeadScore, want)
		}
	})

	t.Run("file host outage fails the submission but not the export", func(t *testing.T) {
		f := newCaptureFixture(t, now)
		f.host.createErr = errors.New("file host down")

		if _, err := f.svc.Submit(ctx, validRequest()); err == nil {
			t.Fatal("Submit() error = nil, want failure when no link can be issued")
		}
		if len(f.linkRepo.byToken) != 0 {
			t.Error("link persisted despite file host outage")
		}

		// The record was persisted before the outage, so its CRM export
		// still runs in the background.
		records := f.downloads.snapshot()
		if len(records) != 1 {
			t.Fatalf("download records = %d, want 1", len(records))
		}
		deadline := time.Now().Add(2 * time.Second)
		for f.gateway.exportCount() == 0 {
			if time.Now().After(deadline) {
				t.Fatal("export never dispatched for the persisted record")
			}
			time.Sleep(5 * time.Millisecond)
		}
	})
}
