package platforms

// PostSubtype selects which aspect-ratio bounds apply during validation.
type PostSubtype string

const (
	SubtypeFeed     PostSubtype = "feed"
	SubtypeStory    PostSubtype = "story"
	SubtypeReel     PostSubtype = "reel"
	SubtypeCarousel PostSubtype = "carousel"
)

type AspectRatioRange struct {
	Min float64
	Max float64
}

type ImageSpec struct {
	MaxSizeBytes int64
	MinWidth     int
	MaxWidth     int
	MinHeight    int
	MaxHeight    int
	MimeTypes    []string
	AspectRatios map[PostSubtype]AspectRatioRange
}

type VideoSpec struct {
	MaxSizeBytes int64
	MinDuration  float64
	MaxDuration  float64
	MaxFrameRate float64
	MaxWidth     int
	MaxHeight    int
	MimeTypes    []string
}

type EngagementWeights struct {
	Likes    float64
	Comments float64
	Shares   float64
}

// DefaultEngagementWeights is the baseline scoring formula; platforms can
// override it in their capability entry.
var DefaultEngagementWeights = EngagementWeights{Likes: 1, Comments: 3, Shares: 5}

// Capabilities is the static per-platform metadata the validator and the
// auto-scheduler consult. A zero MaxHashtags or MaxMentions means no limit.
type Capabilities struct {
	MaxCaptionLength    int
	MaxHashtags         int
	RecommendedHashtags int
	MaxMentions         int
	MediaRequired       bool
	CarouselMin         int
	CarouselMax         int
	Image               *ImageSpec
	Video               *VideoSpec
	WeekdayHours        []int
	WeekendHours        []int
	Weights             *EngagementWeights
}

var capabilityTable = map[string]Capabilities{
	PlatformTwitter: {
		MaxCaptionLength: 280,
		MaxMentions:      10,
		Image: &ImageSpec{
			MaxSizeBytes: 5 * 1024 * 1024,
			MinWidth:     4, MaxWidth: 8192,
			MinHeight: 4, MaxHeight: 8192,
			MimeTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
			AspectRatios: map[PostSubtype]AspectRatioRange{
				SubtypeFeed: {Min: 0.333, Max: 3.0},
			},
		},
		Video: &VideoSpec{
			MaxSizeBytes: 512 * 1024 * 1024,
			MinDuration:  0.5,
			MaxDuration:  140,
			MaxFrameRate: 60,
			MaxWidth:     1920, MaxHeight: 1200,
			MimeTypes: []string{"video/mp4"},
		},
		WeekdayHours: []int{9, 12, 15, 17},
		WeekendHours: []int{11, 13, 19},
		Weights:      &EngagementWeights{Likes: 1, Comments: 2, Shares: 4},
	},
	PlatformInstagram: {
		MaxCaptionLength:    2200,
		MaxHashtags:         30,
		RecommendedHashtags: 15,
		MaxMentions:         20,
		MediaRequired:       true,
		CarouselMin:         2,
		CarouselMax:         10,
		Image: &ImageSpec{
			MaxSizeBytes: 8 * 1024 * 1024,
			MinWidth:     320, MaxWidth: 1440,
			MinHeight: 320, MaxHeight: 1800,
			MimeTypes: []string{"image/jpeg", "image/png"},
			AspectRatios: map[PostSubtype]AspectRatioRange{
				SubtypeFeed:     {Min: 0.8, Max: 1.91},
				SubtypeStory:    {Min: 0.5625, Max: 1.91},
				SubtypeReel:     {Min: 0.5625, Max: 0.5625},
				SubtypeCarousel: {Min: 0.8, Max: 1.91},
			},
		},
		Video: &VideoSpec{
			MaxSizeBytes: 100 * 1024 * 1024,
			MinDuration:  3,
			MaxDuration:  90,
			MaxFrameRate: 60,
			MaxWidth:     1920, MaxHeight: 1920,
			MimeTypes: []string{"video/mp4", "video/quicktime"},
		},
		WeekdayHours: []int{11, 13, 17, 19},
		WeekendHours: []int{10, 12, 16},
	},
	PlatformThreads: {
		MaxCaptionLength: 500,
		MaxMentions:      10,
		Image: &ImageSpec{
			MaxSizeBytes: 8 * 1024 * 1024,
			MinWidth:     320, MaxWidth: 1440,
			MinHeight: 320, MaxHeight: 1800,
			MimeTypes: []string{"image/jpeg", "image/png"},
			AspectRatios: map[PostSubtype]AspectRatioRange{
				SubtypeFeed: {Min: 0.5625, Max: 1.91},
			},
		},
		Video: &VideoSpec{
			MaxSizeBytes: 1024 * 1024 * 1024,
			MinDuration:  1,
			MaxDuration:  300,
			MaxFrameRate: 60,
			MaxWidth:     1920, MaxHeight: 1920,
			MimeTypes: []string{"video/mp4", "video/quicktime"},
		},
		WeekdayHours: []int{10, 13, 19},
		WeekendHours: []int{11, 14, 20},
	},
	PlatformYoutube: {
		MaxCaptionLength: 5000,
		MediaRequired:    true,
		Video: &VideoSpec{
			MaxSizeBytes: 128 * 1024 * 1024 * 1024,
			MinDuration:  1,
			MaxDuration:  43200,
			MaxFrameRate: 60,
			MaxWidth:     3840, MaxHeight: 2160,
			MimeTypes: []string{"video/mp4", "video/quicktime", "video/webm"},
		},
		WeekdayHours: []int{12, 15, 18},
		WeekendHours: []int{10, 14, 17},
		Weights:      &EngagementWeights{Likes: 1, Comments: 4, Shares: 6},
	},
}

func Lookup(platform string) (Capabilities, bool) {
	caps, ok := capabilityTable[platform]
	return caps, ok
}

// OptimalHours returns the hour-of-day set historically associated with
// higher engagement for the platform, split by weekday/weekend.
func OptimalHours(platform string, weekend bool) []int {
	caps, ok := capabilityTable[platform]
	if !ok {
		return nil
	}
	if weekend {
		return caps.WeekendHours
	}
	return caps.WeekdayHours
}

// ScoreWeights returns the platform's engagement weights, falling back to
// the default formula.
func ScoreWeights(platform string) EngagementWeights {
	caps, ok := capabilityTable[platform]
	if !ok || caps.Weights == nil {
		return DefaultEngagementWeights
	}
	return *caps.Weights
}

func KnownPlatforms() []string {
	names := make([]string, 0, len(capabilityTable))
	for name := range capabilityTable {
		names = append(names, name)
	}
	return names
}
