package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/scoring"
)

// rawResult mirrors the JSON the model is asked to produce. Fields are
// pointers where absence must be distinguished from zero values.
type rawResult struct {
	CandidateName  string      `json:"candidate_name"`
	CandidateTitle string      `json:"candidate_title"`
	Score          *int        `json:"score"`
	Verdict        string      `json:"verdict"`
	Analysis       rawAnalysis `json:"analysis"`
}

type rawAnalysis struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Warnings  []string `json:"warnings"`
}

var markdownFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// cleanJSON strips markdown fences and surrounding prose from a model
// response, leaving the outermost JSON object. Models occasionally wrap
// their output even when asked for raw JSON.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if m := markdownFence.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		s = s[start : end+1]
	}

	return s
}

// parseResult decodes and validates a model response into a scoring.Result,
// filling defaults for optional fields the model omitted. A decode failure is
// classified retryable: it is usually a transient truncation, not a permanent
// defect of the input.
func parseResult(raw string) (*scoring.Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, scoring.NewError(scoring.KindEmptyResponse, "no text in model response", false, nil)
	}

	var parsed rawResult
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &parsed); err != nil {
		return nil, scoring.NewError(
			scoring.KindParse,
			fmt.Sprintf("model response is not valid JSON: %v", err),
			true,
			err,
		)
	}

	result := &scoring.Result{
		CandidateName:  parsed.CandidateName,
		CandidateTitle: parsed.CandidateTitle,
		Verdict:        parsed.Verdict,
		Analysis: domain.Analysis{
			Summary:   parsed.Analysis.Summary,
			Strengths: parsed.Analysis.Strengths,
			Warnings:  parsed.Analysis.Warnings,
		},
	}

	if parsed.Score != nil {
		result.Score = *parsed.Score
	}
	if result.CandidateName == "" {
		result.CandidateName = "Unknown"
	}
	if result.CandidateTitle == "" {
		result.CandidateTitle = "Not detected"
	}
	if result.Verdict == "" {
		result.Verdict = "Incomplete analysis"
	}
	if result.Analysis.Summary == "" {
		result.Analysis.Summary = "Summary not available"
	}
	if result.Analysis.Strengths == nil {
		result.Analysis.Strengths = []string{}
	}
	if result.Analysis.Warnings == nil {
		result.Analysis.Warnings = []string{}
	}

	return result, nil
}

// unmarshalClean decodes a cleaned model response into out.
func unmarshalClean(raw string, out interface{}) error {
	if strings.TrimSpace(raw) == "" {
		return scoring.NewError(scoring.KindEmptyResponse, "no text in model response", false, nil)
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), out); err != nil {
		return scoring.NewError(
			scoring.KindParse,
			fmt.Sprintf("model response is not valid JSON: %v", err),
			true,
			err,
		)
	}
	return nil
}

// safetyBlockedResult is returned when the model refuses the content.
// A safety rejection is a non-error, low-score result: the pipeline should
// complete normally rather than burn retries on content that will never pass.
func safetyBlockedResult() *scoring.Result {
	return &scoring.Result{
		CandidateName:  "Unknown",
		CandidateTitle: "Not analyzed",
		Score:          0,
		Verdict:        "Blocked by safety filters",
		Analysis: domain.Analysis{
			Summary:   "The content was blocked by the provider's safety filters.",
			Strengths: []string{},
			Warnings:  []string{"Analysis impossible: content rejected by the API"},
		},
	}
}
