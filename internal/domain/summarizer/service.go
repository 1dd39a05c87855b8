package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	apperrors "github.com/yanqian/news-reducer/pkg/errors"
	"github.com/yanqian/news-reducer/pkg/util"
)

// Service exposes summarization capabilities.
type Service interface {
	Summarize(ctx context.Context, req Request) (Response, error)
	SummarizeAnnotated(ctx context.Context, req AnnotatedRequest) (Response, error)
}

// Annotator turns raw article text into annotated sentences. It is owned by
// the caller; the service never initializes it.
type Annotator interface {
	Annotate(ctx context.Context, text string) (Document, error)
}

type service struct {
	cfg       Config
	pipeline  *Pipeline
	annotator Annotator
	logger    *slog.Logger
}

// NewService is a wire provider for the summarizer domain.
func NewService(cfg Config, annotator Annotator, counter TokenCounter, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		pipeline:  NewPipeline(cfg, counter),
		annotator: annotator,
		logger:    logger.With("component", "summarizer.service"),
	}
}

func (s *service) Summarize(ctx context.Context, req Request) (Response, error) {
	opts, err := s.runOptions(req.Budget, req.ScoringMode)
	if err != nil {
		return Response{}, err
	}
	text := normalize(req.Text)
	if text == "" {
		return s.run(ctx, req.Title, nil, opts)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	doc, err := s.annotator.Annotate(ctx, text)
	if err != nil {
		var appErr *apperrors.AppError
		switch {
		case errors.As(err, &appErr):
			return Response{}, err
		case ctx.Err() != nil:
			return Response{}, contextError(ctx.Err())
		}
		return Response{}, apperrors.Wrap("annotator_error", "annotation failed", err)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(doc.Title)
	}
	return s.run(ctx, title, doc.Sentences, opts)
}

func (s *service) SummarizeAnnotated(ctx context.Context, req AnnotatedRequest) (Response, error) {
	opts, err := s.runOptions(req.Budget, req.ScoringMode)
	if err != nil {
		return Response{}, err
	}
	return s.run(ctx, strings.TrimSpace(req.Title), req.Sentences, opts)
}

func (s *service) run(ctx context.Context, title string, sentences []Sentence, opts RunOptions) (Response, error) {
	start := util.NowUTC()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.pipeline.Run(ctx, prepareSentences(sentences), opts)
	if err != nil {
		return Response{}, contextError(err)
	}

	if !result.Ranking.Converged {
		s.logger.Warn("importance ranking did not converge", "iterations", result.Ranking.Iterations, "max_change", result.Ranking.MaxChange)
	}
	if result.Stats.Degraded {
		s.logger.Warn("no significant tokens, falling back to document order", "sentences", result.Stats.Sentences)
	}
	if result.Stats.IsZero() {
		s.logger.Debug("empty document summarized")
	}

	selected := make([]SelectedSentence, 0, len(result.Selection.Sentences))
	for _, candidate := range result.Selection.Sentences {
		selected = append(selected, SelectedSentence{
			Index: candidate.Index,
			Text:  strings.TrimSpace(candidate.Text),
			Score: candidate.Score,
		})
	}
	keywords := result.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return Response{
		Title:      title,
		Summary:    result.Summary,
		Sentences:  selected,
		Keywords:   keywords,
		Converged:  result.Ranking.Converged,
		Stats:      result.Stats,
		DurationMs: util.SinceMillis(start),
	}, nil
}

// withTimeout bounds a request by the configured timeout. Nested calls keep
// the earlier, shorter deadline.
func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap("timeout", "summarization timed out", err)
	}
	return apperrors.Wrap("canceled", "summarization canceled", err)
}

func (s *service) runOptions(budget int, mode ScoringMode) (RunOptions, error) {
	if budget < 0 {
		return RunOptions{}, apperrors.Wrap("invalid_input", "budget cannot be negative", nil)
	}
	if s.cfg.MaxBudget > 0 && budget > s.cfg.MaxBudget {
		return RunOptions{}, apperrors.Wrap("invalid_input", fmt.Sprintf("budget cannot exceed %d", s.cfg.MaxBudget), nil)
	}
	if mode != "" && !mode.Valid() {
		return RunOptions{}, apperrors.Wrap("invalid_input", fmt.Sprintf("unknown scoring mode %q", mode), nil)
	}
	return RunOptions{Budget: budget, ScoringMode: mode}, nil
}

// prepareSentences assigns document positions and rebuilds missing sentence
// text from token surfaces.
func prepareSentences(sentences []Sentence) []Sentence {
	out := make([]Sentence, len(sentences))
	for i, sentence := range sentences {
		sentence.Index = i
		if strings.TrimSpace(sentence.Text) == "" {
			sentence.Text = joinTokens(sentence.Tokens)
		}
		out[i] = sentence
	}
	return out
}

func joinTokens(tokens []Token) string {
	var builder strings.Builder
	for i, token := range tokens {
		if i > 0 && !token.IsPunct {
			builder.WriteByte(' ')
		}
		builder.WriteString(token.Text)
	}
	return builder.String()
}

func normalize(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return text
}
