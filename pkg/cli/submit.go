package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rentwatch/ractl/pkg/audit"
	"github.com/rentwatch/ractl/pkg/config"
	"github.com/rentwatch/ractl/pkg/data"
	"github.com/rentwatch/ractl/pkg/net"
)

// runSubmission validates and scores an answer set for a token-addressed
// audit, persisting both the answers and the computed result on success.
// Validation failures are returned before anything is written.
func runSubmission(ctx context.Context, cfg *appConfig, token string, answers []audit.AnswerRecord) (*audit.OverallResult, error) {
	a, err := data.GetAudit(ctx, cfg.DB, token)
	if err != nil {
		return nil, err
	}

	engine := audit.NewEngine(data.NewCatalogStore(cfg.DB))
	result, err := engine.Evaluate(ctx, a.Tier, answers)
	if err != nil {
		return nil, err
	}

	if err := data.SaveAnswers(ctx, cfg.DB, token, answers); err != nil {
		return nil, fmt.Errorf("saving answers: %w", err)
	}
	if err := data.SaveResult(ctx, cfg.DB, token, result); err != nil {
		return nil, fmt.Errorf("saving result: %w", err)
	}

	notifyWebhook(ctx, cfg.Conf, token, result)

	slog.Info("audit scored",
		"token", token,
		"tier", a.Tier,
		"overall", result.OverallScore,
		"risk", result.RiskLevel)
	return result, nil
}

// rescoreAudit recomputes a previously submitted audit against the
// current catalog snapshot. Stored answers were validated at submission
// time; catalog churn since then cannot invalidate them unless a question
// was removed or re-tiered, in which case the typed validation error
// surfaces to the caller.
func rescoreAudit(ctx context.Context, cfg *appConfig, token string) (*audit.OverallResult, error) {
	a, err := data.GetAudit(ctx, cfg.DB, token)
	if err != nil {
		return nil, err
	}

	answers, err := data.GetAnswers(ctx, cfg.DB, token)
	if err != nil {
		return nil, fmt.Errorf("loading answers: %w", err)
	}

	engine := audit.NewEngine(data.NewCatalogStore(cfg.DB))
	result, err := engine.Evaluate(ctx, a.Tier, answers)
	if err != nil {
		return nil, fmt.Errorf("rescoring audit %s: %w", token, err)
	}

	if err := data.SaveResult(ctx, cfg.DB, token, result); err != nil {
		return nil, fmt.Errorf("saving result: %w", err)
	}
	return result, nil
}

// notifyWebhook delivers the scored result to the configured webhook.
// Delivery is best effort; failures are logged, never fatal.
func notifyWebhook(ctx context.Context, conf *config.Config, token string, result *audit.OverallResult) {
	if conf == nil || conf.WebhookURL == "" {
		return
	}

	payload := struct {
		Token  string               `json:"token"`
		Result *audit.OverallResult `json:"result"`
	}{Token: token, Result: result}

	if err := net.PostJSON(ctx, conf.WebhookURL, payload); err != nil {
		slog.Warn("webhook delivery failed", "url", conf.WebhookURL, "error", err)
	}
}
