package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/logger"
)

// GeneratedCard is one question/answer pair produced by the provider.
type GeneratedCard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type OpenAIClient interface {
	GenerateFlashcards(ctx context.Context, content string) ([]GeneratedCard, error)
}

type openAIClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	maxRetries int
}

const flashcardSystemPrompt = `You are an expert at creating high-quality study flashcards. Create flashcards from the provided content that are:

- Clear and concise (questions should be specific, answers should be comprehensive but brief)
- Focused on key concepts, definitions, important facts, and relationships
- Appropriate for active recall and spaced repetition
- Cover the most important and testable information
- Use proper academic language and terminology

Return ONLY a valid JSON array of objects with 'question' and 'answer' properties. Each flashcard should be well-structured and educational.

Example format:
[
  {
    "question": "What is the definition of [key term]?",
    "answer": "The definition is [clear, concise definition]"
  }
]

Create 8-15 flashcards depending on the content density.`

func NewOpenAIClient(log *logger.Logger) (OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := 120
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	// Generation is single-shot: the caller owns retry policy, so the
	// transport does not retry unless explicitly configured.
	maxRetries := 0
	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &openAIClient{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *openAIHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

func (c *openAIClient) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *openAIClient) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !isRetryableErr(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) GenerateFlashcards(ctx context.Context, content string) ([]GeneratedCard, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required")
	}

	req := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: flashcardSystemPrompt},
			{Role: "user", Content: "Convert these notes into study flashcards:\n\n" + content},
		},
		Temperature: 0.3,
		MaxTokens:   1500,
	}

	var resp chatCompletionResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
		return nil, apperr.GenerationFailed(fmt.Errorf("openai request failed: %w", err))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, apperr.GenerationFailed(errors.New("no content generated"))
	}

	cards, err := parseFlashcardResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

var jsonFenceRE = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// stripJSONFence removes a ```json ... ``` wrapper when the provider
// insists on markdown despite the instruction contract.
func stripJSONFence(s string) string {
	if !strings.Contains(s, "```json") {
		return s
	}
	if m := jsonFenceRE.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// parseFlashcardResponse validates and repairs the provider output. The
// result must be a JSON array; each element is coerced to string
// question/answer fields and dropped if either side ends up empty. A
// parse failure is surfaced with its diagnostic, never as an empty list.
func parseFlashcardResponse(raw string) ([]GeneratedCard, error) {
	jsonContent := stripJSONFence(raw)

	var elements []map[string]any
	if err := json.Unmarshal([]byte(jsonContent), &elements); err != nil {
		return nil, apperr.GenerationFailed(fmt.Errorf("invalid JSON response from provider: %w", err))
	}

	cards := make([]GeneratedCard, 0, len(elements))
	for _, el := range elements {
		card := GeneratedCard{
			Question: stringField(el, "question"),
			Answer:   stringField(el, "answer"),
		}
		if card.Question == "" || card.Answer == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// stringField coerces scalar values; anything structured is treated as
// missing.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
