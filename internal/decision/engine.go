package decision

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/internal/resilience"
	"github.com/sells-group/address-classifier/pkg/anthropic"
)

// Defaults for the reasoning call.
const (
	DefaultModel     = "claude-haiku-4-5-20251001"
	DefaultMaxTokens = 512
)

// FailureReasonPrefix starts the reason of every result produced when the
// reasoning call or its reply failed.
const FailureReasonPrefix = "Error calling reasoning service or parsing JSON: "

// Option configures an Engine.
type Option func(*Engine)

// WithModel sets the reasoning model.
func WithModel(m string) Option {
	return func(e *Engine) {
		if m != "" {
			e.model = m
		}
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// Engine makes the classification decision for one context.
type Engine struct {
	client    anthropic.Client
	policy    *Policy
	model     string
	maxTokens int64
}

// NewEngine creates an Engine. A nil policy uses DefaultPolicy.
func NewEngine(client anthropic.Client, policy *Policy, opts ...Option) *Engine {
	if policy == nil {
		policy = DefaultPolicy()
	}
	e := &Engine{
		client:    client,
		policy:    policy,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Policy returns the policy the engine applies.
func (e *Engine) Policy() *Policy {
	return e.policy
}

// Decide returns the classification for cc. It never fails: a reasoning
// failure yields an unknown result with zero confidence.
func (e *Engine) Decide(ctx context.Context, cc *model.ClassificationContext) model.ClassificationResult {
	count := cc.NearbyCount()

	r, err := e.ask(ctx, cc)
	if err != nil {
		zap.L().Warn("decision: reasoning failed",
			zap.String("kind", resilience.Kind(err)),
			zap.Error(err),
		)
		return model.ClassificationResult{
			Category:    model.CategoryUnknown,
			Confidence:  0,
			Reason:      FailureReasonPrefix + err.Error(),
			NearbyCount: count,
		}
	}

	r = e.policy.Accept(r)
	r.NearbyCount = count
	return r
}

func (e *Engine) ask(ctx context.Context, cc *model.ClassificationContext) (model.ClassificationResult, error) {
	if e.client == nil {
		return model.ClassificationResult{}, eris.New("decision: reasoning client not configured")
	}
	if cc == nil {
		return model.ClassificationResult{}, eris.New("decision: nil context")
	}

	payload, err := json.MarshalIndent(cc, "", "  ")
	if err != nil {
		return model.ClassificationResult{}, eris.Wrap(err, "decision: marshal context")
	}
	user, err := e.policy.RenderUser(string(payload))
	if err != nil {
		return model.ClassificationResult{}, err
	}

	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System: []anthropic.SystemBlock{{
			Text:         e.policy.Instruction,
			CacheControl: &anthropic.CacheControl{},
		}},
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		return model.ClassificationResult{}, err
	}
	if resp == nil {
		return model.ClassificationResult{}, eris.New("decision: empty response")
	}
	resp.Usage.LogCost(e.model, fmt.Sprintf("decide/%s", e.policy.Version))

	return parseReply(resp.Text())
}
