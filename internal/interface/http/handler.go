package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/news-reducer/internal/domain/summarizer"
	apperrors "github.com/yanqian/news-reducer/pkg/errors"
)

// Handler wires the HTTP transport to the summarizer service.
type Handler struct {
	summarizerSvc summarizer.Service
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(summarySvc summarizer.Service, logger *slog.Logger) *Handler {
	return &Handler{
		summarizerSvc: summarySvc,
		logger:        logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Summarize annotates raw article text and returns its extractive summary.
func (h *Handler) Summarize(c *gin.Context) {
	var req summarizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	resp, err := h.summarizerSvc.Summarize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, serviceError(err))
		return
	}
	h.logSummary(c, resp)
	c.JSON(http.StatusOK, resp)
}

// SummarizeAnnotated summarizes sentences that were annotated by the caller.
func (h *Handler) SummarizeAnnotated(c *gin.Context) {
	var req summarizer.AnnotatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	resp, err := h.summarizerSvc.SummarizeAnnotated(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, serviceError(err))
		return
	}
	h.logSummary(c, resp)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) logSummary(c *gin.Context, resp summarizer.Response) {
	attrs := []any{
		"request_id", requestID(c),
		"sentences", resp.Stats.Sentences,
		"selected", resp.Stats.Selected,
		"iterations", resp.Stats.Iterations,
		"converged", resp.Converged,
		"duration_ms", resp.DurationMs,
	}
	if claims, ok := getClaims(c); ok {
		attrs = append(attrs, "client", claims.Client)
	}
	h.logger.Debug("summary produced", attrs...)
}

func bindError(err error) *HTTPError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", err)
	}
	return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
}

// serviceError maps domain error codes onto HTTP statuses.
func serviceError(err error) *HTTPError {
	code := apperrors.Code(err)
	if code == "" {
		return NewHTTPError(http.StatusInternalServerError, "summarize_failed", "summarization failed", err)
	}
	status := http.StatusInternalServerError
	switch code {
	case "invalid_input":
		status = http.StatusBadRequest
	case "annotator_unavailable":
		status = http.StatusServiceUnavailable
	case "annotator_not_configured":
		status = http.StatusNotImplemented
	case "annotator_error":
		status = http.StatusBadGateway
	case "timeout":
		status = http.StatusGatewayTimeout
	case "canceled":
		status = http.StatusRequestTimeout
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
