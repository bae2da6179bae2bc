package service

import (
	"fmt"
	"regexp"

	"github.com/postpilothq/postpilot/internal/models"
	"github.com/postpilothq/postpilot/internal/platforms"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationIssue is one pre-flight finding. Fix tells the user what to
// change; warnings never block publishing.
type ValidationIssue struct {
	Field    string `json:"field"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

type ValidationResult struct {
	Issues []ValidationIssue `json:"issues"`
}

func (r ValidationResult) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// FirstError returns the first blocking issue, or nil when valid.
func (r ValidationResult) FirstError() *ValidationIssue {
	for i := range r.Issues {
		if r.Issues[i].Severity == SeverityError {
			return &r.Issues[i]
		}
	}
	return nil
}

var (
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	// Dots are allowed inside a handle but never at the end, so a
	// sentence-ending period after a mention is not swallowed.
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_.]*[\p{L}\p{N}_]`)
)

// ContentValidator checks caption and media against the static capability
// table before any network attempt is made.
type ContentValidator struct{}

func NewContentValidator() *ContentValidator {
	return &ContentValidator{}
}

func (v *ContentValidator) Validate(platform string, subtype platforms.PostSubtype, caption string, media []*models.MediaAsset) ValidationResult {
	var result ValidationResult

	caps, ok := platforms.Lookup(platform)
	if !ok {
		result.add("platform", SeverityError,
			fmt.Sprintf("unknown platform %q", platform),
			"target a supported platform")
		return result
	}

	v.validateCaption(&result, caption, caps)

	if caps.MediaRequired && len(media) == 0 {
		result.add("media", SeverityError,
			fmt.Sprintf("%s requires media", platform),
			"attach an image or video")
	}

	if subtype == platforms.SubtypeCarousel {
		v.validateCarousel(&result, platform, caps, media)
		return result
	}

	for _, asset := range media {
		v.validateAsset(&result, "", subtype, caps, asset)
	}

	return result
}

func (v *ContentValidator) validateCaption(result *ValidationResult, caption string, caps platforms.Capabilities) {
	if caps.MaxCaptionLength > 0 {
		if n := len([]rune(caption)); n > caps.MaxCaptionLength {
			result.add("caption", SeverityError,
				fmt.Sprintf("caption is %d characters, the limit is %d", n, caps.MaxCaptionLength),
				fmt.Sprintf("shorten the caption to at most %d characters", caps.MaxCaptionLength))
		}
	}

	hashtags := len(hashtagPattern.FindAllString(caption, -1))
	if caps.MaxHashtags > 0 && hashtags > caps.MaxHashtags {
		result.add("hashtags", SeverityError,
			fmt.Sprintf("%d hashtags exceed the limit of %d", hashtags, caps.MaxHashtags),
			fmt.Sprintf("remove %d hashtags", hashtags-caps.MaxHashtags))
	} else if caps.RecommendedHashtags > 0 && hashtags > caps.RecommendedHashtags {
		result.add("hashtags", SeverityWarning,
			fmt.Sprintf("%d hashtags is above the recommended %d", hashtags, caps.RecommendedHashtags),
			fmt.Sprintf("consider keeping at most %d hashtags", caps.RecommendedHashtags))
	}

	if caps.MaxMentions > 0 {
		if mentions := len(mentionPattern.FindAllString(caption, -1)); mentions > caps.MaxMentions {
			result.add("mentions", SeverityError,
				fmt.Sprintf("%d mentions exceed the limit of %d", mentions, caps.MaxMentions),
				fmt.Sprintf("remove %d mentions", mentions-caps.MaxMentions))
		}
	}
}

// validateCarousel enforces the item-count bound and validates each item,
// prefixing issues with the item index.
func (v *ContentValidator) validateCarousel(result *ValidationResult, platform string, caps platforms.Capabilities, media []*models.MediaAsset) {
	min, max := caps.CarouselMin, caps.CarouselMax
	if min == 0 && max == 0 {
		result.add("itemCount", SeverityError,
			fmt.Sprintf("%s does not support carousel posts", platform),
			"publish the items as individual posts")
		return
	}
	if len(media) < min || len(media) > max {
		result.add("itemCount", SeverityError,
			fmt.Sprintf("carousel has %d items, allowed range is %d-%d", len(media), min, max),
			fmt.Sprintf("use between %d and %d items", min, max))
	}

	for i, asset := range media {
		v.validateAsset(result, fmt.Sprintf("item %d: ", i+1), platforms.SubtypeCarousel, caps, asset)
	}
}

func (v *ContentValidator) validateAsset(result *ValidationResult, prefix string, subtype platforms.PostSubtype, caps platforms.Capabilities, asset *models.MediaAsset) {
	switch asset.Type {
	case models.MediaTypeVideo:
		v.validateVideo(result, prefix, caps.Video, asset)
	default:
		v.validateImage(result, prefix, subtype, caps.Image, asset)
	}
}

func (v *ContentValidator) validateImage(result *ValidationResult, prefix string, subtype platforms.PostSubtype, spec *platforms.ImageSpec, asset *models.MediaAsset) {
	if spec == nil {
		result.add("media", SeverityError, prefix+"images are not supported here", "attach a video instead")
		return
	}

	if !containsString(spec.MimeTypes, asset.MimeType) {
		result.add("mimeType", SeverityError,
			fmt.Sprintf("%simage type %s is not supported", prefix, asset.MimeType),
			fmt.Sprintf("convert the image to one of %v", spec.MimeTypes))
	}

	if spec.MaxSizeBytes > 0 && asset.FileSize > spec.MaxSizeBytes {
		result.add("fileSize", SeverityError,
			fmt.Sprintf("%simage is %d bytes, the limit is %d", prefix, asset.FileSize, spec.MaxSizeBytes),
			"compress or resize the image")
	}

	if asset.Width > 0 && asset.Height > 0 {
		if asset.Width < spec.MinWidth || asset.Width > spec.MaxWidth ||
			asset.Height < spec.MinHeight || asset.Height > spec.MaxHeight {
			result.add("dimensions", SeverityError,
				fmt.Sprintf("%simage is %dx%d, allowed range is %dx%d to %dx%d",
					prefix, asset.Width, asset.Height, spec.MinWidth, spec.MinHeight, spec.MaxWidth, spec.MaxHeight),
				"resize the image to fit the allowed dimensions")
		}

		if bounds, ok := spec.AspectRatios[subtype]; ok {
			ratio := float64(asset.Width) / float64(asset.Height)
			if ratio < bounds.Min-aspectTolerance || ratio > bounds.Max+aspectTolerance {
				result.add("aspectRatio", SeverityError,
					fmt.Sprintf("%saspect ratio %.2f:1 is outside the allowed %.2f:1 to %.2f:1",
						prefix, ratio, bounds.Min, bounds.Max),
					"crop the image to a supported aspect ratio")
			}
		}
	}
}

const aspectTolerance = 0.01

func (v *ContentValidator) validateVideo(result *ValidationResult, prefix string, spec *platforms.VideoSpec, asset *models.MediaAsset) {
	if spec == nil {
		result.add("media", SeverityError, prefix+"videos are not supported here", "attach an image instead")
		return
	}

	if !containsString(spec.MimeTypes, asset.MimeType) {
		result.add("mimeType", SeverityError,
			fmt.Sprintf("%svideo type %s is not supported", prefix, asset.MimeType),
			fmt.Sprintf("convert the video to one of %v", spec.MimeTypes))
	}

	if spec.MaxSizeBytes > 0 && asset.FileSize > spec.MaxSizeBytes {
		result.add("fileSize", SeverityError,
			fmt.Sprintf("%svideo is %d bytes, the limit is %d", prefix, asset.FileSize, spec.MaxSizeBytes),
			"compress the video or lower its resolution")
	}

	if asset.Duration > 0 {
		if asset.Duration < spec.MinDuration || asset.Duration > spec.MaxDuration {
			result.add("duration", SeverityError,
				fmt.Sprintf("%svideo runs %.1fs, allowed range is %.1fs to %.1fs",
					prefix, asset.Duration, spec.MinDuration, spec.MaxDuration),
				"trim the video to fit the allowed duration")
		}
	}

	if spec.MaxFrameRate > 0 && asset.FrameRate > spec.MaxFrameRate {
		result.add("frameRate", SeverityError,
			fmt.Sprintf("%svideo frame rate %.0ffps exceeds the maximum %.0ffps", prefix, asset.FrameRate, spec.MaxFrameRate),
			fmt.Sprintf("re-encode the video at %.0ffps or below", spec.MaxFrameRate))
	}

	if asset.Width > 0 && asset.Height > 0 {
		if asset.Width > spec.MaxWidth || asset.Height > spec.MaxHeight {
			result.add("resolution", SeverityError,
				fmt.Sprintf("%svideo is %dx%d, the maximum is %dx%d", prefix, asset.Width, asset.Height, spec.MaxWidth, spec.MaxHeight),
				"downscale the video resolution")
		}
	}
}

func (r *ValidationResult) add(field, severity, message, fix string) {
	r.Issues = append(r.Issues, ValidationIssue{Field: field, Severity: severity, Message: message, Fix: fix})
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
