package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pawzhq/pawz-api/internal/config"
	"github.com/pawzhq/pawz-api/internal/domain"
	"github.com/pawzhq/pawz-api/internal/scoring"
	"github.com/pawzhq/pawz-api/internal/store"
	"google.golang.org/genai"
)

// Low temperature keeps the JSON output stable; CV content can legitimately
// contain sensitive terms, so the safety filters are relaxed and a hard block
// is handled as a low-score result instead.
var generationConfig = &genai.GenerateContentConfig{
	Temperature:      genai.Ptr[float32](0.2),
	TopK:             genai.Ptr[float32](40),
	TopP:             genai.Ptr[float32](0.95),
	MaxOutputTokens:  8192,
	ResponseMIMEType: "application/json",
	SafetySettings: []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
	},
}

// Scorer implements scoring.Scorer and scoring.JobParser using the Gemini API.
type Scorer struct {
	logger       *slog.Logger
	client       *genai.Client
	defaultModel string
}

// NewScorer creates a Gemini-backed scorer from LLM configuration.
func NewScorer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Scorer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}

	if cfg.ModelName == "" {
		return nil, errors.New("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Scorer{
		logger:       logger.With("component", "gemini_scorer"),
		client:       client,
		defaultModel: cfg.ModelName,
	}, nil
}

// Score evaluates a candidate payload against a job context.
//
// Text payloads are appended to the prompt; binary payloads are attached as
// an inline PDF part (multimodal). The model requested at enqueue time wins
// over the configured default.
func (s *Scorer) Score(
	ctx context.Context,
	payload *store.Payload,
	job *domain.Job,
	weights *domain.Weights,
	model string,
) (*scoring.Result, error) {
	if payload == nil {
		return nil, scoring.NewError(scoring.KindNotFound, "payload cannot be nil", false, nil)
	}
	if job == nil {
		return nil, scoring.NewError(scoring.KindNotFound, "job cannot be nil", false, nil)
	}

	prompt := buildCandidatePrompt(job, weights)

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if payload.Type == store.PayloadTypeBinary {
		parts = append(parts,
			genai.NewPartFromText("\n\nCANDIDATE PROFILE:\n(see attached PDF document)"),
			genai.NewPartFromBytes(payload.Content, "application/pdf"),
		)
	} else {
		parts = append(parts,
			genai.NewPartFromText(fmt.Sprintf("\n\nCANDIDATE PROFILE:\n%s", string(payload.Content))),
		)
	}

	modelID := s.resolveModel(model)
	s.logger.InfoContext(ctx, "calling Gemini API",
		"model", modelID,
		"payload_type", payload.Type,
		"job_id", job.ID)

	resp, err := s.client.Models.GenerateContent(
		ctx,
		modelID,
		[]*genai.Content{{Role: genai.RoleUser, Parts: parts}},
		generationConfig,
	)
	if err != nil {
		return nil, classifyError(err)
	}

	text, blocked, err := extractText(resp)
	if err != nil {
		return nil, err
	}
	if blocked {
		s.logger.WarnContext(ctx, "content blocked by safety filters", "job_id", job.ID)
		return safetyBlockedResult(), nil
	}

	result, err := parseResult(text)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "scoring completed",
		"score", result.Score,
		"verdict", result.Verdict)
	return result, nil
}

// ParseJobBrief structures a raw job description into criteria.
func (s *Scorer) ParseJobBrief(ctx context.Context, rawBrief string) (*scoring.JobBrief, error) {
	if rawBrief == "" {
		return nil, scoring.NewError(scoring.KindBadRequest, "job brief cannot be empty", false, nil)
	}

	resp, err := s.client.Models.GenerateContent(
		ctx,
		s.defaultModel,
		genai.Text(buildParsePrompt(rawBrief)),
		generationConfig,
	)
	if err != nil {
		return nil, classifyError(err)
	}

	text, blocked, err := extractText(resp)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, scoring.NewError(scoring.KindBadRequest, "job brief rejected by safety filters", false, nil)
	}

	var brief scoring.JobBrief
	if err := unmarshalClean(text, &brief); err != nil {
		return nil, err
	}
	return &brief, nil
}

func (s *Scorer) resolveModel(model string) string {
	if model == "" {
		return s.defaultModel
	}
	return model
}

// extractText pulls the response text out of the first candidate, reporting
// whether the content was blocked by safety filters.
func extractText(resp *genai.GenerateContentResponse) (string, bool, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false, scoring.NewError(scoring.KindEmptyResponse, "no response from model", false, nil)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", true, nil
	}

	if candidate.Content == nil {
		return "", false, scoring.NewError(scoring.KindEmptyResponse, "empty content in model response", false, nil)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	return text, false, nil
}

// Compile-time interface checks.
var (
	_ scoring.Scorer    = (*Scorer)(nil)
	_ scoring.JobParser = (*Scorer)(nil)
)
