package platforms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YoutubeAdapter uploads videos through the official API client. Media is
// mandatory; the caption doubles as title (first line) and description.
type YoutubeAdapter struct{}

func NewYoutubeAdapter() *YoutubeAdapter {
	return &YoutubeAdapter{}
}

func (y *YoutubeAdapter) Platform() string {
	return PlatformYoutube
}

func (y *YoutubeAdapter) service(ctx context.Context, creds *Credentials) (*youtube.Service, error) {
	token := &oauth2.Token{AccessToken: creds.AccessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	return youtube.NewService(ctx, option.WithHTTPClient(client))
}

func (y *YoutubeAdapter) Publish(ctx context.Context, creds *Credentials, in PublishInput) *PublishResult {
	if in.Media == nil || in.Media.Type != MediaVideo {
		return failure("youtube requires a video attachment")
	}

	service, err := y.service(ctx, creds)
	if err != nil {
		return failure(fmt.Sprintf("could not create youtube client: %v", err))
	}

	file, err := os.Open(in.Media.LocalPath)
	if err != nil {
		return failure(fmt.Sprintf("could not open video file: %v", err))
	}
	defer file.Close()

	title, description := splitCaption(in.Text)
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: description,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Context(ctx).Do()
	if err != nil {
		return y.classify(err)
	}

	return success(response.Id)
}

func (y *YoutubeAdapter) FetchEngagement(ctx context.Context, creds *Credentials, externalID string) (*Engagement, error) {
	service, err := y.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	response, err := service.Videos.List([]string{"statistics"}).Id(externalID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("could not fetch video statistics: %w", err)
	}
	if len(response.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", externalID)
	}

	stats := response.Items[0].Statistics
	if stats == nil {
		return &Engagement{}, nil
	}
	return &Engagement{
		Likes:    int64(stats.LikeCount),
		Comments: int64(stats.CommentCount),
	}, nil
}

func (y *YoutubeAdapter) VerifyCredentials(ctx context.Context, creds *Credentials) error {
	service, err := y.service(ctx, creds)
	if err != nil {
		return err
	}

	_, err = service.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
	if err != nil {
		if isGoogleAuthError(err) {
			return errors.New("youtube token expired or revoked")
		}
		return err
	}
	return nil
}

func (y *YoutubeAdapter) classify(err error) *PublishResult {
	if isGoogleAuthError(err) {
		return authFailure("youtube token expired or revoked, reconnect the account")
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return failure("youtube rate limit reached, try again later")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return failure("youtube did not respond within 30s")
	}
	slog.Info(err.Error())
	return failure(fmt.Sprintf("video upload failed: %v", err))
}

func isGoogleAuthError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401 || apiErr.Code == 403
	}
	return strings.Contains(err.Error(), "oauth2: token expired")
}

// splitCaption derives a title from the caption's first line and keeps the
// rest as the description.
func splitCaption(caption string) (string, string) {
	const maxTitle = 100
	title, description, found := strings.Cut(caption, "\n")
	if !found {
		description = caption
	}
	if len(title) > maxTitle {
		title = title[:maxTitle]
	}
	if title == "" {
		title = "Untitled upload"
	}
	return title, strings.TrimSpace(description)
}
