package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// JobFit is the model's predicted role match.
type JobFit struct {
	JobTitle      string `json:"job_title"`
	FitPercentage int    `json:"fit_percentage"`
}

// Score is the parsed ATS analysis.
type Score struct {
	ATSScore     int      `json:"ats_score"`
	Feedback     string   `json:"feedback"`
	Improvements []string `json:"improvements"`
	JobFit       *JobFit  `json:"job_fit,omitempty"`
}

// parseScore validates and normalizes the model's JSON answer. Models
// are inconsistent about numeric types, so the score is coerced from
// number or string and clamped to [0, 100].
func parseScore(content string) (*Score, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("invalid API response format: %w", err)
	}

	for _, key := range []string{"ats_score", "feedback", "improvements"} {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("invalid API response format: missing required field %q", key)
		}
	}

	atsScore, err := coerceInt(raw["ats_score"])
	if err != nil {
		return nil, fmt.Errorf("invalid API response format: ats_score: %w", err)
	}

	score := &Score{ATSScore: clamp(atsScore, 0, 100)}
	if err := json.Unmarshal(raw["feedback"], &score.Feedback); err != nil {
		return nil, fmt.Errorf("invalid API response format: feedback: %w", err)
	}
	if err := json.Unmarshal(raw["improvements"], &score.Improvements); err != nil {
		return nil, fmt.Errorf("invalid API response format: improvements: %w", err)
	}
	if fit, ok := raw["job_fit"]; ok {
		// job_fit is best-effort; a malformed one is dropped rather
		// than failing the whole score.
		var jf JobFit
		if err := json.Unmarshal(fit, &jf); err == nil {
			score.JobFit = &jf
		}
	}
	return score, nil
}

// coerceInt accepts 85, 85.4 or "85".
func coerceInt(raw json.RawMessage) (int, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		return int(f), nil
	}
	return 0, fmt.Errorf("unexpected type: %s", string(raw))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
