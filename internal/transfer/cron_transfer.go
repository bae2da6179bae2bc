package transfer

import "encoding/json"

// PostOutcome summarizes one processed post for the cron response.
type PostOutcome struct {
	PostID    int64    `json:"postId"`
	Status    string   `json:"status"`
	Platforms []string `json:"platforms"`
}

type ProcessResult struct {
	Processed int           `json:"processed"`
	Results   []PostOutcome `json:"results"`
}

type EngagementSummary struct {
	PostsScanned        int `json:"postsScanned"`
	EngagementCollected int `json:"engagementCollected"`
	Errors              int `json:"errors"`
}

type PlatformHealth struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

type HealthSummary struct {
	DailyCountersReset int64                     `json:"dailyCountersReset"`
	Platforms          map[string]PlatformHealth `json:"-"`
}

// MarshalJSON flattens the per-platform breakdown next to the counter so the
// response reads {"dailyCountersReset": n, "twitter": {...}, ...}.
func (s HealthSummary) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Platforms)+1)
	out["dailyCountersReset"] = s.DailyCountersReset
	for platform, health := range s.Platforms {
		out[platform] = health
	}
	return json.Marshal(out)
}
