package review

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

// ReviewComment is one inline comment parsed from the model's review output.
type ReviewComment struct {
	Path     string `json:"path"`
	Body     string `json:"body"`
	Line     int    `json:"line,omitempty"`
	Position int    `json:"position,omitempty"`
}

// The model may wrap its JSON in markdown code fences.
var jsonFencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ParseReviewComments validates and extracts the review payload
// {"comments": [{path, body, line?, position?}]} from raw model output.
// Anything that does not parse into that shape is a malformed response.
func ParseReviewComments(text string) ([]ReviewComment, error) {
	jsonText := strings.TrimSpace(text)
	if matches := jsonFencePattern.FindStringSubmatch(text); len(matches) > 1 {
		jsonText = strings.TrimSpace(matches[1])
	}

	var result struct {
		Comments []ReviewComment `json:"comments"`
	}
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	for i, c := range result.Comments {
		if c.Path == "" || c.Body == "" {
			return nil, fmt.Errorf("%w: comment %d missing path or body", domain.ErrMalformedResponse, i)
		}
	}

	return result.Comments, nil
}
