package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/news-reducer/internal/domain/summarizer"
	apperrors "github.com/yanqian/news-reducer/pkg/errors"
)

const annotatePath = "/annotate"

// Client calls an external annotation service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an annotation client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Annotate splits text into sentences and returns their token annotations.
func (c *Client) Annotate(ctx context.Context, text string) (summarizer.Document, error) {
	payload, err := json.Marshal(annotateRequest{Text: text})
	if err != nil {
		return summarizer.Document{}, fmt.Errorf("encode annotate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+annotatePath, bytes.NewReader(payload))
	if err != nil {
		return summarizer.Document{}, fmt.Errorf("build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summarizer.Document{}, ctxErr
		}
		return summarizer.Document{}, apperrors.Wrap("annotator_unavailable", "annotator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return summarizer.Document{}, apperrors.Wrap("annotator_unavailable", "annotator temporarily unavailable", nil)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return summarizer.Document{}, fmt.Errorf("annotate request error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var raw annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return summarizer.Document{}, fmt.Errorf("decode annotate response: %w", err)
	}
	return raw.toDocument(), nil
}

type annotateRequest struct {
	Text string `json:"text"`
}

type annotateResponse struct {
	Title     string        `json:"title"`
	Sentences []rawSentence `json:"sentences"`
}

type rawSentence struct {
	Text   string     `json:"text"`
	Tokens []rawToken `json:"tokens"`
}

type rawToken struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	POS     string `json:"pos"`
	IsPunct bool   `json:"is_punct"`
	IsStop  bool   `json:"is_stop"`
}

func (r annotateResponse) toDocument() summarizer.Document {
	sentences := make([]summarizer.Sentence, 0, len(r.Sentences))
	for i, s := range r.Sentences {
		tokens := make([]summarizer.Token, 0, len(s.Tokens))
		for _, t := range s.Tokens {
			tokens = append(tokens, summarizer.Token{
				Text:    t.Text,
				Lemma:   t.Lemma,
				POS:     t.POS,
				IsPunct: t.IsPunct,
				IsStop:  t.IsStop,
			})
		}
		sentences = append(sentences, summarizer.Sentence{Index: i, Text: s.Text, Tokens: tokens})
	}
	return summarizer.Document{Title: strings.TrimSpace(r.Title), Sentences: sentences}
}

// ErrNotConfigured is returned by Unavailable.
var ErrNotConfigured = errors.New("annotator base url not configured")

// Unavailable stands in when no annotation service is configured.
type Unavailable struct{}

// Annotate always fails with annotator_not_configured. Unlike
// annotator_unavailable the condition is permanent.
func (Unavailable) Annotate(context.Context, string) (summarizer.Document, error) {
	return summarizer.Document{}, apperrors.Wrap("annotator_not_configured", "text annotation is not configured, submit pre-annotated sentences instead", ErrNotConfigured)
}
