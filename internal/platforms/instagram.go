package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const instagramPublishScope = "instagram_content_publish"

// InstagramAdapter is the two-step container family: media is mandatory, a
// container referencing a public media URL is created first, polled until the
// provider finishes processing, then committed with a publish call.
type InstagramAdapter struct {
	apiURL       string
	cache        clientCache
	pollInterval time.Duration
	pollAttempts int
}

func NewInstagramAdapter() *InstagramAdapter {
	return &InstagramAdapter{
		apiURL:       "https://graph.instagram.com/v21.0",
		cache:        clientCache{platform: PlatformInstagram},
		pollInterval: 2 * time.Second,
		pollAttempts: 15,
	}
}

func (g *InstagramAdapter) Platform() string {
	return PlatformInstagram
}

func (g *InstagramAdapter) Publish(ctx context.Context, creds *Credentials, in PublishInput) *PublishResult {
	if in.Media == nil {
		return failure("instagram requires media; attach an image or video")
	}

	if err := g.checkToken(ctx, creds); err != nil {
		return g.classify(err)
	}
	if !creds.HasScope(instagramPublishScope) {
		return authFailure("connection is missing the content publish permission, reconnect and grant it")
	}

	if !mimeAllowed(in.Media, capabilityTable[PlatformInstagram]) {
		slog.Warn("unsupported media mime type for instagram, attempting anyway", "mime", in.Media.MimeType)
	}

	containerID, err := g.createContainer(ctx, creds, in)
	if err != nil {
		return g.classify(err)
	}

	if err := g.awaitContainer(ctx, creds, containerID); err != nil {
		return g.classify(err)
	}

	mediaID, err := g.publishContainer(ctx, creds, containerID)
	if err != nil {
		return g.classify(err)
	}

	return success(mediaID)
}

func (g *InstagramAdapter) checkToken(ctx context.Context, creds *Credentials) error {
	url := fmt.Sprintf("%s/me?fields=id&access_token=%s", g.apiURL, creds.AccessToken)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := g.cache.get().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if isGraphAuthError(body) {
			return errGraphAuth
		}
		return fmt.Errorf("instagram token check failed (status %d): %s", resp.StatusCode, truncateBody(body))
	}
	return nil
}

func (g *InstagramAdapter) createContainer(ctx context.Context, creds *Credentials, in PublishInput) (string, error) {
	payload := map[string]interface{}{
		"caption":      in.Text,
		"access_token": creds.AccessToken,
	}
	switch in.Media.Type {
	case MediaVideo:
		payload["media_type"] = "REELS"
		payload["video_url"] = in.Media.URL
	default:
		payload["image_url"] = in.Media.URL
	}

	id, err := g.graphPost(ctx, fmt.Sprintf("%s/%s/media", g.apiURL, creds.AccountID), payload)
	if err != nil {
		return "", fmt.Errorf("container creation failed: %w", err)
	}
	return id, nil
}

// awaitContainer polls the container status until the provider reports
// FINISHED or ERROR.
func (g *InstagramAdapter) awaitContainer(ctx context.Context, creds *Credentials, containerID string) error {
	url := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s", g.apiURL, containerID, creds.AccessToken)

	for attempt := 0; attempt < g.pollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return err
		}

		resp, err := g.cache.get().Do(req)
		if err != nil {
			return err
		}

		var result struct {
			StatusCode string `json:"status_code"`
		}
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("could not parse container status: %w", err)
		}

		switch result.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("media container processing failed (%s)", result.StatusCode)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.pollInterval):
		}
	}

	return errors.New("media container did not finish processing in time")
}

func (g *InstagramAdapter) publishContainer(ctx context.Context, creds *Credentials, containerID string) (string, error) {
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": creds.AccessToken,
	}
	id, err := g.graphPost(ctx, fmt.Sprintf("%s/%s/media_publish", g.apiURL, creds.AccountID), payload)
	if err != nil {
		return "", fmt.Errorf("container publish failed: %w", err)
	}
	return id, nil
}

func (g *InstagramAdapter) graphPost(ctx context.Context, url string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.cache.get().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if isGraphAuthError(respBody) {
			return "", errGraphAuth
		}
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", errors.New("no id returned from instagram")
	}
	return result.ID, nil
}

func (g *InstagramAdapter) FetchEngagement(ctx context.Context, creds *Credentials, externalID string) (*Engagement, error) {
	url := fmt.Sprintf("%s/%s?fields=like_count,comments_count&access_token=%s", g.apiURL, externalID, creds.AccessToken)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.cache.get().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from instagram: %d", resp.StatusCode)
	}

	var result struct {
		LikeCount     int64 `json:"like_count"`
		CommentsCount int64 `json:"comments_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse engagement response: %w", err)
	}

	return &Engagement{Likes: result.LikeCount, Comments: result.CommentsCount}, nil
}

func (g *InstagramAdapter) VerifyCredentials(ctx context.Context, creds *Credentials) error {
	if err := g.checkToken(ctx, creds); err != nil {
		if errors.Is(err, errGraphAuth) {
			return errors.New("instagram token expired or revoked")
		}
		return err
	}
	return nil
}

var errGraphAuth = errors.New("graph api auth error")

func (g *InstagramAdapter) classify(err error) *PublishResult {
	if errors.Is(err, errGraphAuth) {
		g.cache.reset()
		return authFailure("instagram session invalid or token expired, reconnect the account")
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return failure(rl.Error())
	}
	if errors.Is(err, ErrTimeout) {
		return failure("instagram did not respond within 30s")
	}
	slog.Info(err.Error())
	return failure(err.Error())
}

// isGraphAuthError matches the OAuth error taxonomy shared by the graph-style
// providers: type OAuthException or code 190.
func isGraphAuthError(body []byte) bool {
	var parsed struct {
		Error struct {
			Type string `json:"type"`
			Code int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false
	}
	return parsed.Error.Type == "OAuthException" || parsed.Error.Code == 190
}

func mimeAllowed(media *Media, caps Capabilities) bool {
	var allowed []string
	switch media.Type {
	case MediaVideo:
		if caps.Video != nil {
			allowed = caps.Video.MimeTypes
		}
	default:
		if caps.Image != nil {
			allowed = caps.Image.MimeTypes
		}
	}
	for _, m := range allowed {
		if m == media.MimeType {
			return true
		}
	}
	return false
}
