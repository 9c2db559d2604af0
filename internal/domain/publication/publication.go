// Package publication defines the whitepaper asset and publication-link
// entities together with their repository interfaces.
package publication

import "time"

// Whitepaper identifies a downloadable asset hosted on the external file
// host. The file path is immutable once published; edits create a new
// version rather than mutating the link target. The CMS owns these rows;
// the lead-capture core only reads them and bumps the download counter.
type Whitepaper struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	FilePath      string    `json:"filePath"`
	PublishedAt   time.Time `json:"publishedAt"`
	DownloadCount int       `json:"downloadCount"`
}

// PublicationLink is a minted, time-bounded URL granting access to a
// whitepaper's file. A link is usable iff !Revoked && now <= ExpiresAt.
type PublicationLink struct {
	Token        string    `json:"token"`
	WhitepaperID string    `json:"whitepaperId"`
	Email        string    `json:"email"`
	RemoteURL    string    `json:"remoteUrl"`
	RemoteToken  string    `json:"-"` // file-host share identifier, never serialized
	IssuedAt     time.Time `json:"issuedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Revoked      bool      `json:"revoked"`
}

// Usable reports whether the link still resolves to a file.
func (l *PublicationLink) Usable(now time.Time) bool {
	return !l.Revoked && !now.After(l.ExpiresAt)
}

// WhitepaperRepository defines read access plus the download counter for
// Whitepaper entities.
type WhitepaperRepository interface {
	FindByID(id string) (*Whitepaper, error)
	FindBySlug(slug string) (*Whitepaper, error)
	List() ([]*Whitepaper, error)
	Store(wp *Whitepaper) error
	IncrementDownloadCount(id string) error
}

// LinkRepository defines the operations for persisting PublicationLink
// entities. Tokens are globally unique and require no locking since issuance
// never depends on reading another link's state.
type LinkRepository interface {
	FindByToken(token string) (*PublicationLink, error)
	Store(link *PublicationLink) error
	MarkRevoked(token string) error
	ListExpiredActive(now time.Time) ([]*PublicationLink, error)
}
