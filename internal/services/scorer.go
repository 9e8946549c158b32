package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/talent-ranker/internal/logger"
	"alfredoptarigan/talent-ranker/internal/models"
)

// CandidateProfile is the text the scorer reads about a candidate, already
// scoped to one org and job.
type CandidateProfile struct {
	OrgID       string
	CandidateID string
	JobID       string
	JobTitle    string
	Text        string
}

// Scorer produces a raw score for one criterion. Implementations may fail or
// block; callers bound each call with a deadline.
type Scorer interface {
	Score(ctx context.Context, profile CandidateProfile, criterion models.Criterion, instructions string) (*models.CriterionScore, error)
	Model() string
}

// ContextRetriever returns job-specific reference text for a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, orgID, jobID, query string) (string, error)
}

type geminiScorer struct {
	gemini        GeminiService
	retriever     ContextRetriever
	promptBuilder *PromptBuilder
	maxRetries    int
	log           *zap.Logger
}

// NewGeminiScorer returns a Scorer backed by Gemini. retriever may be nil.
func NewGeminiScorer(gemini GeminiService, retriever ContextRetriever, maxRetries int, log *zap.Logger) Scorer {
	return &geminiScorer{
		gemini:        gemini,
		retriever:     retriever,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
		log:           logger.WithCommonFields(log, "gemini", gemini.Model()),
	}
}

func (s *geminiScorer) Model() string {
	return s.gemini.Model()
}

// Score implements Scorer.
func (s *geminiScorer) Score(ctx context.Context, profile CandidateProfile, criterion models.Criterion, instructions string) (*models.CriterionScore, error) {
	log := logger.WithScope(s.log, profile.OrgID, profile.JobID, profile.CandidateID).
		With(zap.String(logger.FieldCriterion, criterion.ID))

	if strings.TrimSpace(profile.Text) == "" {
		return nil, errors.New("candidate profile is empty")
	}

	jobContext := ""
	if s.retriever != nil {
		query := strings.TrimSpace(criterion.Label() + " " + criterion.Description)
		retrieved, err := s.retriever.Retrieve(ctx, profile.OrgID, profile.JobID, query)
		if err != nil {
			log.Warn("failed to retrieve job context", zap.Error(err))
		} else {
			jobContext = retrieved
		}
	}

	prompt := s.promptBuilder.BuildCriterionPrompt(profile, criterion, jobContext, instructions)
	log.Debug("scoring criterion", zap.Int("prompt_chars", len(prompt)))

	response, err := s.gemini.GenerateJSONWithRetry(ctx, prompt, 0.2, s.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to score criterion %q: %w", criterion.ID, err)
	}

	score, err := parseScoreResponse(response, criterion)
	if err != nil {
		log.Warn("unparseable scorer response", zap.String("response", logger.TruncateForLog(response, 200)))
		return nil, err
	}
	return score, nil
}

type scoreResponse struct {
	RawScore      flexibleFloat `json:"raw_score"`
	Confidence    flexibleFloat `json:"confidence"`
	Justification string        `json:"justification"`
	Evidence      []string      `json:"evidence"`
}

// flexibleFloat accepts numbers that models occasionally quote.
type flexibleFloat float64

func (f *flexibleFloat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return errors.New("value is null")
	}
	raw = strings.Trim(raw, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", raw, err)
	}
	*f = flexibleFloat(v)
	return nil
}

func parseScoreResponse(response string, criterion models.Criterion) (*models.CriterionScore, error) {
	var parsed scoreResponse
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score for %q: %w", criterion.ID, err)
	}

	evidence := make([]string, 0, len(parsed.Evidence))
	for _, e := range parsed.Evidence {
		if e = strings.TrimSpace(e); e != "" {
			evidence = append(evidence, e)
		}
	}

	return &models.CriterionScore{
		CriterionID:   criterion.ID,
		RawScore:      float64(parsed.RawScore),
		MaxScore:      criterion.MaxScore,
		Confidence:    float64(parsed.Confidence),
		Justification: strings.TrimSpace(parsed.Justification),
		Evidence:      evidence,
	}, nil
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	return strings.TrimSpace(text)
}
