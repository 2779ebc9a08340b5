// Package services – DocumentService
//
// This file implements the document pipeline: CV and quiz generation from
// uploaded PDFs. Both paths share the same shape: look up a named instruction
// template, extract and normalize text from the uploads, compose the prompt,
// call the completion gateway, and parse the provider's JSON payload. The CV
// path additionally transforms the provider schema into JSON Resume.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/jsonresume"
	"github.com/ldelacour/go-carriere-backend/internal/pdf"
	"github.com/ldelacour/go-carriere-backend/internal/repo"
)

// Names of the stored instruction templates the pipeline depends on.
// A missing template disables the corresponding feature.
const (
	PromptCVGeneration   = "cv_generation"
	PromptQuizGeneration = "quiz_generation"
)

// Completer is the gateway subset the document pipeline needs: one-shot
// text completions without conversation state.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DocumentService orchestrates CV and quiz generation.
type DocumentService struct {
	// DB is the GORM handle used for template lookups and quiz persistence.
	DB *gorm.DB
	// Gateway performs the completion calls.
	Gateway Completer
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *gorm.DB, gw Completer) *DocumentService {
	return &DocumentService{DB: db, Gateway: gw}
}

// CVRequest carries the inputs of a CV generation: the candidate's current CV
// as a PDF, the job offer as free text or a PDF, the target position, and an
// optional previously generated CV to refine.
type CVRequest struct {
	CVPDF     []byte
	OffreText string
	OffrePDF  []byte
	Poste     string
	Existing  string
}

// CVResult is the outcome of a CV generation: the structured résumé and the
// accompanying cover letter.
type CVResult struct {
	CV     jsonresume.Resume `json:"cv"`
	Letter string            `json:"letter"`
}

// providerCV is the payload shape the completion provider is instructed to
// return for CV generation.
type providerCV struct {
	CV     jsonresume.GeneratedCV `json:"cv"`
	Lettre string                 `json:"lettre"`
}

// GenerateCV produces a tailored résumé and cover letter for a job offer.
//
// The instruction template named cv_generation must exist; its absence means
// the feature was never provisioned and yields ErrFeatureUnavailable. PDF
// uploads that contain no extractable text yield ErrBadDocument, and a
// provider response that cannot be parsed as the expected JSON yields
// ErrBadGeneration.
func (s *DocumentService) GenerateCV(ctx context.Context, userID string, req CVRequest) (*CVResult, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "GenerateCV",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	tpl, err := s.template(ctx, PromptCVGeneration)
	if err != nil {
		return nil, err
	}

	cvText, err := extractUpload(req.CVPDF)
	if err != nil {
		return nil, err
	}
	offre, err := offerText(req.OffreText, req.OffrePDF)
	if err != nil {
		return nil, err
	}
	if cvText == "" && req.Existing == "" {
		return nil, ErrBadDocument
	}

	prompt := composePrompt(tpl.Content, map[string]string{
		"cv":       cvText,
		"offre":    offre,
		"poste":    strings.TrimSpace(req.Poste),
		"existing": req.Existing,
	})

	raw, err := s.Gateway.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var out providerCV
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		span.RecordError(err)
		return nil, ErrBadGeneration
	}

	return &CVResult{CV: jsonresume.Convert(out.CV), Letter: out.Lettre}, nil
}

// QuizRequest carries the inputs of a quiz generation: the candidate's CV as
// a PDF and the job offer as free text or a PDF.
type QuizRequest struct {
	CVPDF     []byte
	OffreText string
	OffrePDF  []byte
	Poste     string
}

// GenerateQuiz produces interview-preparation questions from a CV and a job
// offer, and persists the result as a Quiz row owned by the caller.
func (s *DocumentService) GenerateQuiz(ctx context.Context, userID string, req QuizRequest) (*domain.Quiz, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "GenerateQuiz",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	tpl, err := s.template(ctx, PromptQuizGeneration)
	if err != nil {
		return nil, err
	}

	cvText, err := extractUpload(req.CVPDF)
	if err != nil {
		return nil, err
	}
	offre, err := offerText(req.OffreText, req.OffrePDF)
	if err != nil {
		return nil, err
	}
	if cvText == "" && offre == "" {
		return nil, ErrBadDocument
	}

	prompt := composePrompt(tpl.Content, map[string]string{
		"cv":    cvText,
		"offre": offre,
		"poste": strings.TrimSpace(req.Poste),
	})

	raw, err := s.Gateway.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	payload := extractJSON(raw)
	if !json.Valid([]byte(payload)) {
		return nil, ErrBadGeneration
	}

	return repo.CreateQuiz(ctx, s.DB, userID, strings.TrimSpace(req.Poste), datatypes.JSON(payload))
}

// ListQuizzes returns the caller's stored quizzes, most recent first.
func (s *DocumentService) ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error) {
	return repo.ListQuizzes(ctx, s.DB, userID)
}

// template fetches a named instruction template, mapping a missing row to
// ErrFeatureUnavailable.
func (s *DocumentService) template(ctx context.Context, name string) (*domain.PromptTemplate, error) {
	tpl, err := repo.GetPromptTemplate(ctx, s.DB, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeatureUnavailable
		}
		return nil, err
	}
	return tpl, nil
}

// extractUpload turns an optional PDF upload into normalized text. An upload
// that yields no text at all is a bad document; no upload is not.
func extractUpload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	text, err := pdf.ExtractTextBytes(data)
	if err != nil {
		if errors.Is(err, pdf.ErrNoText) {
			return "", ErrBadDocument
		}
		return "", ErrBadDocument
	}
	return pdf.Normalize(text), nil
}

// offerText resolves the job offer from either the text field or a PDF
// upload; the text field wins when both are present.
func offerText(text string, pdfData []byte) (string, error) {
	if t := strings.TrimSpace(text); t != "" {
		return pdf.Normalize(t), nil
	}
	return extractUpload(pdfData)
}

// composePrompt substitutes {{key}} placeholders in a template and appends
// any non-empty inputs the template does not reference, so data is never
// silently dropped by an older template.
func composePrompt(tpl string, vars map[string]string) string {
	out := tpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	var extra []string
	for _, k := range []string{"poste", "offre", "cv", "existing"} {
		v := vars[k]
		if v == "" || strings.Contains(tpl, "{{"+k+"}}") {
			continue
		}
		extra = append(extra, strings.ToUpper(k)+":\n"+v)
	}
	if len(extra) > 0 {
		out = out + "\n\n" + strings.Join(extra, "\n\n")
	}
	return out
}

// extractJSON isolates the JSON object in a completion that may be wrapped in
// markdown fences or prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}
