package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/susu3304/loanbot/internal/intent"
)

// Confidence given to every accepted model parse. Model guesses always go
// through a confirmation step.
const Confidence = 0.65

const DefaultTimeout = 30 * time.Second

const parsePrompt = `You are a financial intent parser.
Extract structured data from the user's message.

Output strictly valid JSON with these keys:
- "intent": one of ["loan_given", "loan_received", "query_debts", "clarify"]
- "entity": the person involved (capitalized name) or null
- "amount": the number found or null

Example: "I bought lunch for John, $15"
JSON: {"intent": "loan_given", "entity": "John", "amount": 15}`

const chatPrompt = `You are a friendly personal finance assistant that keeps track of money
the user lends to friends and gets paid back. Reply briefly and warmly in one or
two sentences. If it fits, remind the user they can say things like
"I lent John 50" or "who owes me?".`

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// Client talks to an OpenAI-compatible chat completions endpoint. Ollama
// serves one under /v1.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// Parse asks the model for a structured intent. It never returns an error:
// failures come back as StatusTimedOut or StatusUnavailable.
func (c *Client) Parse(ctx context.Context, text string) Result {
	content, err := c.complete(ctx, parsePrompt, text)
	if err != nil {
		return failure(err)
	}

	in, err := decodeIntent(content)
	if err != nil {
		c.logger.Debug("fallback returned unusable output", zap.String("content", content), zap.Error(err))
		return Result{Status: StatusUnavailable, Err: err}
	}
	return ok(in)
}

// Chat produces a conversational reply for messages that are not financial.
func (c *Client) Chat(ctx context.Context, text string) (string, error) {
	content, err := c.complete(ctx, chatPrompt, text)
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(content)
	if reply == "" {
		return "", errors.New("empty chat reply")
	}
	return reply, nil
}

func (c *Client) complete(ctx context.Context, system, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("chat completion: %w", ctx.Err())
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func failure(err error) Result {
	if isTimeout(err) {
		return Result{Status: StatusTimedOut, Err: err}
	}
	return Result{Status: StatusUnavailable, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

type modelOutput struct {
	Intent string      `json:"intent"`
	Entity *string     `json:"entity"`
	Amount looseAmount `json:"amount"`
}

// looseAmount accepts 15, 15.5, "15" and "$15".
type looseAmount struct {
	value *float64
}

func (a *looseAmount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		a.value = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	s = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", ""))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	a.value = &n
	return nil
}

func decodeIntent(content string) (intent.Intent, error) {
	raw := jsonObject.FindString(content)
	if raw == "" {
		return intent.Intent{}, errors.New("no JSON object in model output")
	}
	var out modelOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return intent.Intent{}, fmt.Errorf("decode model output: %w", err)
	}

	tag := intent.Tag(strings.TrimSpace(out.Intent))
	if tag == "" {
		tag = intent.Clarify
	}
	in := intent.NewClarify(intent.SourceLLM).
		WithTag(tag).
		WithConfidence(Confidence).
		WithConfirmation(true)
	if out.Entity != nil && strings.TrimSpace(*out.Entity) != "" {
		in = in.WithEntity(strings.TrimSpace(*out.Entity))
	}
	if v := out.Amount.value; v != nil {
		if !intent.ValidAmount(*v) {
			return intent.Intent{}, fmt.Errorf("amount %v out of range", *v)
		}
		in = in.WithAmount(*v)
	}
	return in, nil
}
