package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// TwitterAdapter is the single-call family: one JSON endpoint posts text,
// media is uploaded first through a separate multipart endpoint and attached
// by id.
type TwitterAdapter struct {
	apiURL    string
	uploadURL string
	cache     clientCache
}

func NewTwitterAdapter() *TwitterAdapter {
	return &TwitterAdapter{
		apiURL:    "https://api.twitter.com",
		uploadURL: "https://upload.twitter.com",
		cache:     clientCache{platform: PlatformTwitter},
	}
}

func (t *TwitterAdapter) Platform() string {
	return PlatformTwitter
}

func (t *TwitterAdapter) Publish(ctx context.Context, creds *Credentials, in PublishInput) *PublishResult {
	var mediaIDs []string

	if in.Media != nil {
		mediaID, err := t.uploadMedia(ctx, creds, in.Media)
		if err != nil {
			return t.classify(err)
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	payload := map[string]interface{}{"text": in.Text}
	if len(mediaIDs) > 0 {
		payload["media"] = map[string]interface{}{"media_ids": mediaIDs}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return failure(fmt.Sprintf("could not encode tweet payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.apiURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return failure(fmt.Sprintf("could not build tweet request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.cache.get().Do(req)
	if err != nil {
		return t.classify(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Sprintf("could not read tweet response: %v", err))
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		if isTwitterAuthError(resp.StatusCode, respBody) {
			t.cache.reset()
			return authFailure("access token expired or revoked, reconnect the account")
		}
		return failure(fmt.Sprintf("tweet rejected (status %d): %s", resp.StatusCode, truncateBody(respBody)))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return failure(fmt.Sprintf("could not parse tweet response: %v", err))
	}
	if result.Data.ID == "" {
		return failure("no tweet id returned")
	}

	return success(result.Data.ID)
}

func (t *TwitterAdapter) uploadMedia(ctx context.Context, creds *Credentials, media *Media) (string, error) {
	file, err := os.Open(media.LocalPath)
	if err != nil {
		return "", fmt.Errorf("could not open media file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", filepath.Base(media.LocalPath))
	if err != nil {
		return "", fmt.Errorf("could not build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("could not read media file: %w", err)
	}
	category := "tweet_image"
	switch media.Type {
	case MediaVideo:
		category = "tweet_video"
	case MediaGif:
		category = "tweet_gif"
	}
	writer.WriteField("media_category", category)
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.uploadURL+"/1.1/media/upload.json", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.cache.get().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if isTwitterAuthError(resp.StatusCode, respBody) {
			t.cache.reset()
			return "", errTwitterAuth
		}
		return "", fmt.Errorf("media upload rejected (status %d): %s", resp.StatusCode, truncateBody(respBody))
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("could not parse media upload response: %w", err)
	}
	if result.MediaIDString == "" {
		return "", errors.New("no media id returned from upload")
	}
	return result.MediaIDString, nil
}

func (t *TwitterAdapter) FetchEngagement(ctx context.Context, creds *Credentials, externalID string) (*Engagement, error) {
	url := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=public_metrics", t.apiURL, externalID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := t.cache.get().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from twitter: %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			PublicMetrics struct {
				LikeCount    int64 `json:"like_count"`
				ReplyCount   int64 `json:"reply_count"`
				RetweetCount int64 `json:"retweet_count"`
				QuoteCount   int64 `json:"quote_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse engagement response: %w", err)
	}

	m := result.Data.PublicMetrics
	return &Engagement{
		Likes:    m.LikeCount,
		Comments: m.ReplyCount,
		Shares:   m.RetweetCount + m.QuoteCount,
	}, nil
}

func (t *TwitterAdapter) VerifyCredentials(ctx context.Context, creds *Credentials) error {
	req, err := http.NewRequestWithContext(ctx, "GET", t.apiURL+"/2/users/me", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := t.cache.get().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twitter token check failed with status %d", resp.StatusCode)
	}
	return nil
}

var errTwitterAuth = errors.New("twitter auth error")

func (t *TwitterAdapter) classify(err error) *PublishResult {
	if errors.Is(err, errTwitterAuth) {
		return authFailure("access token expired or revoked, reconnect the account")
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return failure(rl.Error())
	}
	if errors.Is(err, ErrTimeout) {
		return failure("twitter did not respond within 30s")
	}
	slog.Info(err.Error())
	return failure(err.Error())
}

// Known token-death signatures from the provider error taxonomy.
func isTwitterAuthError(status int, body []byte) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	s := strings.ToLower(string(body))
	return strings.Contains(s, "invalid or expired token") ||
		strings.Contains(s, "could not authenticate you")
}

func truncateBody(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}
