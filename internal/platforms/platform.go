package platforms

import (
	"context"
	"time"
)

const (
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
	PlatformThreads   = "threads"
	PlatformYoutube   = "youtube"
)

// Credentials is the decrypted form of a connection's credential map. Which
// fields are populated depends on the platform; the vault enforces the
// required set before an adapter ever sees them.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
	Scopes       []string
	ExpiresAt    time.Time
}

func (c *Credentials) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Media describes an attachment ready for upload: a publicly resolvable URL
// for container-style providers and a local path for multipart uploads.
type Media struct {
	URL       string
	LocalPath string
	Type      string
	MimeType  string
}

const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaGif   = "gif"
)

type PublishInput struct {
	Text  string
	Media *Media
}

// PublishResult mirrors what the dispatcher needs to settle billing and
// connection health: a provider id on success, a human-readable message on
// failure, and whether the failure means the stored token is dead.
type PublishResult struct {
	Success    bool
	ExternalID string
	Message    string
	AuthError  bool
}

type Engagement struct {
	Likes    int64
	Comments int64
	Shares   int64
}

// Adapter translates a generic publish intent into one provider's protocol.
type Adapter interface {
	Platform() string
	Publish(ctx context.Context, creds *Credentials, in PublishInput) *PublishResult
	FetchEngagement(ctx context.Context, creds *Credentials, externalID string) (*Engagement, error)
	VerifyCredentials(ctx context.Context, creds *Credentials) error
}

func failure(msg string) *PublishResult {
	return &PublishResult{Message: msg}
}

func authFailure(msg string) *PublishResult {
	return &PublishResult{Message: msg, AuthError: true}
}

func success(externalID string) *PublishResult {
	return &PublishResult{Success: true, ExternalID: externalID}
}
