package service

import (
	"strings"
	"testing"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
)

func issueFor(result ValidationResult, field string) *ValidationIssue {
	for i := range result.Issues {
		if result.Issues[i].Field == field {
			return &result.Issues[i]
		}
	}
	return nil
}

func TestValidateCaptionLength(t *testing.T) {
	v := NewContentValidator()

	long := strings.Repeat("a", 281)
	result := v.Validate(platforms.PlatformTwitter, platforms.SubtypeFeed, long, nil)
	if result.Valid() {
		t.Fatal("expected a 281 character caption to fail on twitter")
	}
	issue := issueFor(result, "caption")
	if issue == nil || issue.Severity != SeverityError {
		t.Fatalf("expected a caption error, got %+v", result.Issues)
	}
	if issue.Fix == "" {
		t.Error("expected the issue to carry a fix suggestion")
	}

	result = v.Validate(platforms.PlatformTwitter, platforms.SubtypeFeed, strings.Repeat("a", 280), nil)
	if !result.Valid() {
		t.Fatalf("expected a 280 character caption to pass, got %+v", result.Issues)
	}
}

func TestValidateHashtagLimits(t *testing.T) {
	v := NewContentValidator()
	image := &models.MediaAsset{
		Type:     models.MediaTypeImage,
		MimeType: "image/jpeg",
		Width:    1080, Height: 1080,
		FileSize: 1024,
	}

	tags := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteString("#tag")
			b.WriteString(strings.Repeat("x", i%3))
			b.WriteString(" ")
		}
		return b.String()
	}

	result := v.Validate(platforms.PlatformInstagram, platforms.SubtypeFeed, tags(35), []*models.MediaAsset{image})
	if result.Valid() {
		t.Fatal("expected 35 hashtags to be rejected on instagram")
	}
	if issue := issueFor(result, "hashtags"); issue == nil || issue.Severity != SeverityError {
		t.Fatalf("expected a hashtag error, got %+v", result.Issues)
	}

	result = v.Validate(platforms.PlatformInstagram, platforms.SubtypeFeed, tags(20), []*models.MediaAsset{image})
	if !result.Valid() {
		t.Fatalf("expected 20 hashtags to pass with a warning, got %+v", result.Issues)
	}
	if issue := issueFor(result, "hashtags"); issue == nil || issue.Severity != SeverityWarning {
		t.Fatalf("expected a hashtag warning, got %+v", result.Issues)
	}
}

func TestMentionPatternIgnoresTrailingPunctuation(t *testing.T) {
	tests := []struct {
		caption string
		want    []string
	}{
		{"thanks @alice.", []string{"@alice"}},
		{"ping @alice. and @bob!", []string{"@alice", "@bob"}},
		{"shoutout to @team.design today", []string{"@team.design"}},
		{"just an @ sign and a stray @.", nil},
	}

	for _, tt := range tests {
		got := mentionPattern.FindAllString(tt.caption, -1)
		if len(got) != len(tt.want) {
			t.Errorf("mentions in %q = %v, want %v", tt.caption, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("mentions in %q = %v, want %v", tt.caption, got, tt.want)
				break
			}
		}
	}
}

func TestValidateMediaRequired(t *testing.T) {
	v := NewContentValidator()

	result := v.Validate(platforms.PlatformInstagram, platforms.SubtypeFeed, "hello", nil)
	if result.Valid() {
		t.Fatal("expected instagram to require media")
	}
	if issue := issueFor(result, "media"); issue == nil {
		t.Fatalf("expected a media issue, got %+v", result.Issues)
	}

	result = v.Validate(platforms.PlatformTwitter, platforms.SubtypeFeed, "hello", nil)
	if !result.Valid() {
		t.Fatalf("expected twitter to allow text-only posts, got %+v", result.Issues)
	}
}

func TestValidateAspectRatio(t *testing.T) {
	v := NewContentValidator()

	wide := &models.MediaAsset{
		Type:     models.MediaTypeImage,
		MimeType: "image/jpeg",
		Width:    1000, Height: 400,
		FileSize: 1024,
	}

	result := v.Validate(platforms.PlatformInstagram, platforms.SubtypeFeed, "hi", []*models.MediaAsset{wide})
	issue := issueFor(result, "aspectRatio")
	if issue == nil || issue.Severity != SeverityError {
		t.Fatalf("expected a 2.5:1 image to fail the feed aspect check, got %+v", result.Issues)
	}

	square := &models.MediaAsset{
		Type:     models.MediaTypeImage,
		MimeType: "image/jpeg",
		Width:    1080, Height: 1080,
		FileSize: 1024,
	}
	result = v.Validate(platforms.PlatformInstagram, platforms.SubtypeFeed, "hi", []*models.MediaAsset{square})
	if !result.Valid() {
		t.Fatalf("expected a square image to pass, got %+v", result.Issues)
	}
}

func TestValidateCarouselBounds(t *testing.T) {
	v := NewContentValidator()

	item := func() *models.MediaAsset {
		return &models.MediaAsset{
			Type:     models.MediaTypeImage,
			MimeType: "image/jpeg",
			Width:    1080, Height: 1080,
			FileSize: 1024,
		}
	}

	cases := []struct {
		name  string
		items int
		valid bool
	}{
		{"single item", 1, false},
		{"minimum", 2, true},
		{"maximum", 10, true},
		{"too many", 11, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			media := make([]*models.MediaAsset, tc.items)
			for i := range media {
				media[i] = item()
			}
			result := v.Validate(platforms.PlatformInstagram, platforms.SubtypeCarousel, "hi", media)
			if result.Valid() != tc.valid {
				t.Fatalf("carousel with %d items: valid=%v, want %v (%+v)",
					tc.items, result.Valid(), tc.valid, result.Issues)
			}
			if !tc.valid {
				if issue := issueFor(result, "itemCount"); issue == nil {
					t.Fatalf("expected an itemCount issue, got %+v", result.Issues)
				}
			}
		})
	}
}

func TestValidateCarouselItemPrefix(t *testing.T) {
	v := NewContentValidator()

	media := []*models.MediaAsset{
		{Type: models.MediaTypeImage, MimeType: "image/jpeg", Width: 1080, Height: 1080, FileSize: 1024},
		{Type: models.MediaTypeImage, MimeType: "image/bmp", Width: 1080, Height: 1080, FileSize: 1024},
	}

	result := v.Validate(platforms.PlatformInstagram, platforms.SubtypeCarousel, "hi", media)
	issue := issueFor(result, "mimeType")
	if issue == nil {
		t.Fatalf("expected a mime type issue, got %+v", result.Issues)
	}
	if !strings.HasPrefix(issue.Message, "item 2: ") {
		t.Errorf("expected the issue to name the offending item, got %q", issue.Message)
	}
}

func TestValidateUnknownPlatform(t *testing.T) {
	v := NewContentValidator()

	result := v.Validate("myspace", platforms.SubtypeFeed, "hi", nil)
	if result.Valid() {
		t.Fatal("expected an unknown platform to be rejected")
	}
}
