// Package notifier posts balance reports to a Slack incoming webhook.
package notifier

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/balancecheck/internal/clients"
	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/report"
)

type message struct {
	Text string `json:"text"`
}

// Slack incoming webhook publisher. Responses carry nothing of interest.
type Slack struct {
	rest   *clients.RESTClient
	fiat   string
	logger *zap.Logger
}

// NewSlack rest must point at the full webhook URL.
func NewSlack(rest *clients.RESTClient, fiat string, logger *zap.Logger) *Slack {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Slack{rest: rest, fiat: fiat, logger: logger}
}

// PublishPositionsByExchange one code block table per exchange, in configured order.
func (s *Slack) PublishPositionsByExchange(ctx context.Context, byExchange domain.ExchangePositions) error {
	sections := make([]string, 0, len(byExchange))
	for _, r := range byExchange {
		sections = append(sections, report.ExchangeSection(r, s.fiat))
	}
	return s.post(ctx, codeBlock(strings.Join(sections, "\n\n")))
}

// PublishTotal grand total line.
func (s *Slack) PublishTotal(ctx context.Context, value decimal.Decimal, currency string) error {
	return s.post(ctx, "*Total:* "+domain.FormatFiat(value, currency))
}

// PublishURL link to the rendered graph.
func (s *Slack) PublishURL(ctx context.Context, link string) error {
	return s.post(ctx, link)
}

func (s *Slack) post(ctx context.Context, text string) error {
	if err := s.rest.PostJSON(ctx, "", message{Text: text}, nil); err != nil {
		return errors.Wrap(err, "post slack message")
	}
	s.logger.Debug("published slack message", zap.Int("bytes", len(text)))
	return nil
}

func codeBlock(s string) string {
	return "```\n" + s + "\n```"
}
