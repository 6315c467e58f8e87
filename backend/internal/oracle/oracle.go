package oracle

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"shipgraph/backend/internal/metrics"
	"shipgraph/backend/internal/survey"
	apperrors "shipgraph/backend/pkg/errors"
	"shipgraph/backend/pkg/logger"
)

// SystemPrompt is the fixed system message of every structuring call
const SystemPrompt = "You are an intelligent data converter."

//go:embed prompt.txt
var defaultTemplate string

// LoadTemplate returns the instruction template at path, or the built-in one
// when path is empty
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return defaultTemplate, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template: %w", err)
	}
	return string(data), nil
}

// RenderPrompt frames one raw table under the instruction template
func RenderPrompt(template string, table survey.RawTable) (string, error) {
	input, err := json.MarshalIndent(table, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode table: %w", err)
	}

	var b strings.Builder
	b.WriteString(template)
	b.WriteString("\n\n---- Input Data ----\n")
	b.Write(input)
	b.WriteString("\n\n---- Output JSON ----")
	return b.String(), nil
}

// Completer is the chat call the oracle depends on
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMsg string) (string, error)
}

// TokenCounter measures prompt size
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the encoding of a model
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the encoding for model, falling back to cl100k_base
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to load token encoding: %w", err)
		}
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

// Count returns the number of tokens in text
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// Options configures an Oracle
type Options struct {
	// Template is the instruction text placed before the table
	Template string
	// Counter is optional; without it prompt sizes are not measured
	Counter TokenCounter
	// TokenBudget is the prompt size above which a warning is logged
	TokenBudget int
}

// Oracle turns raw tables into structured fragments through a language model
type Oracle struct {
	completer Completer
	opts      Options
	logger    *zap.Logger
}

// New creates an oracle. An empty template selects the built-in one.
func New(completer Completer, opts Options) *Oracle {
	if opts.Template == "" {
		opts.Template = defaultTemplate
	}
	return &Oracle{
		completer: completer,
		opts:      opts,
		logger:    logger.Get(),
	}
}

// Structure sends one table to the model and parses the reply as a fragment.
// A reply that does not meet the fragment contract is an ErrStructuringParse
// carrying the raw reply; it is never retried.
func (o *Oracle) Structure(ctx context.Context, table survey.RawTable) (*survey.Fragment, error) {
	prompt, err := RenderPrompt(o.opts.Template, table)
	if err != nil {
		return nil, apperrors.NewStructuringParse(table.Page, table.TableNumber, "", err)
	}

	if o.opts.Counter != nil {
		tokens := o.opts.Counter.Count(SystemPrompt) + o.opts.Counter.Count(prompt)
		metrics.OraclePromptTokens.Observe(float64(tokens))
		if o.opts.TokenBudget > 0 && tokens > o.opts.TokenBudget {
			o.logger.Warn("Structuring prompt exceeds token budget",
				zap.Int("page", table.Page),
				zap.Int("table_number", table.TableNumber),
				zap.Int("tokens", tokens),
				zap.Int("budget", o.opts.TokenBudget),
			)
		}
	}

	start := time.Now()
	reply, err := o.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		metrics.OracleDuration.WithLabelValues(metrics.StatusError).Observe(time.Since(start).Seconds())
		return nil, err
	}

	fragment, err := survey.ParseFragment([]byte(reply))
	if err != nil {
		metrics.OracleDuration.WithLabelValues(metrics.StatusRejected).Observe(time.Since(start).Seconds())
		o.logger.Error("Oracle output rejected",
			zap.Int("page", table.Page),
			zap.Int("table_number", table.TableNumber),
			zap.Int("reply_length", len(reply)),
			zap.Error(err),
		)
		return nil, apperrors.NewStructuringParse(table.Page, table.TableNumber, reply, err)
	}
	metrics.OracleDuration.WithLabelValues(metrics.StatusOK).Observe(time.Since(start).Seconds())

	o.logger.Debug("Table structured",
		zap.Int("page", table.Page),
		zap.Int("table_number", table.TableNumber),
		zap.String("document", fragment.DocumentName),
		zap.Int("categories", len(fragment.Categories)),
		zap.Int("questions", fragment.QuestionCount()),
	)
	return fragment, nil
}
