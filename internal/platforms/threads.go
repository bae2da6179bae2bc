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

const tokenExpiryWarning = 7 * 24 * time.Hour

// ThreadsAdapter follows the container protocol for media but accepts
// text-only posts directly, skipping the container step.
type ThreadsAdapter struct {
	apiURL       string
	cache        clientCache
	pollInterval time.Duration
	pollAttempts int
}

func NewThreadsAdapter() *ThreadsAdapter {
	return &ThreadsAdapter{
		apiURL:       "https://graph.threads.net/v1.0",
		cache:        clientCache{platform: PlatformThreads},
		pollInterval: 2 * time.Second,
		pollAttempts: 15,
	}
}

func (a *ThreadsAdapter) Platform() string {
	return PlatformThreads
}

func (a *ThreadsAdapter) Publish(ctx context.Context, creds *Credentials, in PublishInput) *PublishResult {
	// Long-lived tokens expire after ~60 days; warn while they still work.
	if !creds.ExpiresAt.IsZero() && time.Until(creds.ExpiresAt) < tokenExpiryWarning {
		slog.Warn("threads token nearing expiry", "expires_at", creds.ExpiresAt)
	}

	if in.Media == nil {
		id, err := a.publishText(ctx, creds, in.Text)
		if err != nil {
			return a.classify(err)
		}
		return success(id)
	}

	containerID, err := a.createContainer(ctx, creds, in)
	if err != nil {
		return a.classify(err)
	}
	if err := a.awaitContainer(ctx, creds, containerID); err != nil {
		return a.classify(err)
	}
	id, err := a.publishContainer(ctx, creds, containerID)
	if err != nil {
		return a.classify(err)
	}
	return success(id)
}

func (a *ThreadsAdapter) publishText(ctx context.Context, creds *Credentials, text string) (string, error) {
	payload := map[string]interface{}{
		"media_type":   "TEXT",
		"text":         text,
		"auto_publish": true,
		"access_token": creds.AccessToken,
	}
	id, err := a.post(ctx, fmt.Sprintf("%s/%s/threads", a.apiURL, creds.AccountID), payload)
	if err != nil {
		return "", fmt.Errorf("text post failed: %w", err)
	}
	return id, nil
}

func (a *ThreadsAdapter) createContainer(ctx context.Context, creds *Credentials, in PublishInput) (string, error) {
	payload := map[string]interface{}{
		"text":         in.Text,
		"access_token": creds.AccessToken,
	}
	switch in.Media.Type {
	case MediaVideo:
		payload["media_type"] = "VIDEO"
		payload["video_url"] = in.Media.URL
	default:
		payload["media_type"] = "IMAGE"
		payload["image_url"] = in.Media.URL
	}

	id, err := a.post(ctx, fmt.Sprintf("%s/%s/threads", a.apiURL, creds.AccountID), payload)
	if err != nil {
		return "", fmt.Errorf("container creation failed: %w", err)
	}
	return id, nil
}

func (a *ThreadsAdapter) awaitContainer(ctx context.Context, creds *Credentials, containerID string) error {
	url := fmt.Sprintf("%s/%s?fields=status&access_token=%s", a.apiURL, containerID, creds.AccessToken)

	for attempt := 0; attempt < a.pollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return err
		}

		resp, err := a.cache.get().Do(req)
		if err != nil {
			return err
		}

		var result struct {
			Status string `json:"status"`
		}
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("could not parse container status: %w", err)
		}

		switch result.Status {
		case "FINISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("media container processing failed (%s)", result.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.pollInterval):
		}
	}

	return errors.New("media container did not finish processing in time")
}

func (a *ThreadsAdapter) publishContainer(ctx context.Context, creds *Credentials, containerID string) (string, error) {
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": creds.AccessToken,
	}
	id, err := a.post(ctx, fmt.Sprintf("%s/%s/threads_publish", a.apiURL, creds.AccountID), payload)
	if err != nil {
		return "", fmt.Errorf("container publish failed: %w", err)
	}
	return id, nil
}

func (a *ThreadsAdapter) post(ctx context.Context, url string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.cache.get().Do(req)
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
		return "", errors.New("no id returned from threads")
	}
	return result.ID, nil
}

func (a *ThreadsAdapter) FetchEngagement(ctx context.Context, creds *Credentials, externalID string) (*Engagement, error) {
	url := fmt.Sprintf("%s/%s/insights?metric=likes,replies,reposts&access_token=%s", a.apiURL, externalID, creds.AccessToken)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.cache.get().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from threads: %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value int64 `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse engagement response: %w", err)
	}

	var eng Engagement
	for _, metric := range result.Data {
		if len(metric.Values) == 0 {
			continue
		}
		v := metric.Values[0].Value
		switch metric.Name {
		case "likes":
			eng.Likes = v
		case "replies":
			eng.Comments = v
		case "reposts":
			eng.Shares = v
		}
	}
	return &eng, nil
}

func (a *ThreadsAdapter) VerifyCredentials(ctx context.Context, creds *Credentials) error {
	url := fmt.Sprintf("%s/me?fields=id&access_token=%s", a.apiURL, creds.AccessToken)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := a.cache.get().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if isGraphAuthError(body) {
			return errors.New("threads token expired or revoked")
		}
		return fmt.Errorf("threads token check failed with status %d", resp.StatusCode)
	}
	return nil
}

func (a *ThreadsAdapter) classify(err error) *PublishResult {
	if errors.Is(err, errGraphAuth) {
		a.cache.reset()
		return authFailure("threads session invalid or token expired, reconnect the account")
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return failure(rl.Error())
	}
	if errors.Is(err, ErrTimeout) {
		return failure("threads did not respond within 30s")
	}
	slog.Info(err.Error())
	return failure(err.Error())
}
