package scrape

import "time"

// TargetFailure records one scrape target that could not be processed
// during a cycle. Failures are isolated: they never abort the cycle.
type TargetFailure struct {
	MediaName   string `json:"media_name"`
	WebsiteName string `json:"website_name"`
	URL         string `json:"url"`
	Reason      string `json:"reason"`
}

// CycleReport summarizes one scrape cycle. Counts are per target;
// Announced counts media whose subscribers were notified.
type CycleReport struct {
	Skipped   bool            `json:"skipped"`
	Attempted int             `json:"attempted"`
	Updated   int             `json:"updated"`
	Unchanged int             `json:"unchanged"`
	Failed    int             `json:"failed"`
	Announced int             `json:"announced"`
	Delivered int             `json:"delivered"`
	Elapsed   time.Duration   `json:"elapsed"`
	Failures  []TargetFailure `json:"failures,omitempty"`
}
