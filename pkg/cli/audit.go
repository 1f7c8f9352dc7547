package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rentwatch/ractl/pkg/audit"
	"github.com/rentwatch/ractl/pkg/data"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const rescoreConcurrency = 4

var (
	auditTierFlag = &cli.StringFlag{
		Name:     "tier",
		Usage:    "Audit tier (tier_1 .. tier_5)",
		Required: true,
	}

	auditAddressFlag = &cli.StringFlag{
		Name:     "address",
		Usage:    "Property address",
		Required: true,
	}

	auditLandlordFlag = &cli.StringFlag{
		Name:     "landlord",
		Usage:    "Landlord name",
		Required: true,
	}

	auditTokenFlag = &cli.StringFlag{
		Name:     "token",
		Aliases:  []string{"t"},
		Usage:    "Audit token",
		Required: true,
	}

	answersFileFlag = &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path to the answers file (JSON or YAML)",
		Required: true,
	}

	rescoreAllFlag = &cli.BoolFlag{
		Name:  "all",
		Usage: "Rescore every submitted audit against the current catalog",
	}

	auditCmd = &cli.Command{
		Name:            "audit",
		Aliases:         []string{"a"},
		Usage:           "Audit operations",
		HideHelpCommand: true,
		Subcommands: []*cli.Command{
			{
				Name:    "create",
				Usage:   "Create a new token-addressed audit",
				Aliases: []string{"c"},
				Action:  cmdAuditCreate,
				Flags: []cli.Flag{
					auditTierFlag,
					auditAddressFlag,
					auditLandlordFlag,
				},
			},
			{
				Name:    "submit",
				Usage:   "Validate, score, and persist an answer set",
				Aliases: []string{"s"},
				Action:  cmdAuditSubmit,
				Flags: []cli.Flag{
					auditTokenFlag,
					answersFileFlag,
					debugFlag,
				},
			},
			{
				Name:    "result",
				Usage:   "Show the persisted result for an audit",
				Aliases: []string{"r"},
				Action:  cmdAuditResult,
				Flags: []cli.Flag{
					auditTokenFlag,
				},
			},
			{
				Name:   "rescore",
				Usage:  "Recompute submitted audits against the current catalog snapshot",
				Action: cmdAuditRescore,
				Flags: []cli.Flag{
					rescoreAllFlag,
					debugFlag,
				},
			},
		},
	}
)

// answersFile is the on-disk shape of a submission.
type answersFile struct {
	Answers []audit.AnswerRecord `json:"answers" yaml:"answers"`
}

func loadAnswersFile(path string) ([]audit.AnswerRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answers file %s: %w", path, err)
	}

	var af answersFile
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &af)
	default:
		err = json.Unmarshal(b, &af)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing answers file %s: %w", path, err)
	}

	for _, a := range af.Answers {
		if err := validate.Struct(a); err != nil {
			return nil, fmt.Errorf("invalid answer record: %w", err)
		}
	}
	return af.Answers, nil
}

func cmdAuditCreate(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	tier := c.String(auditTierFlag.Name)
	if !data.Contains(audit.Tiers, tier) {
		return fmt.Errorf("unknown tier: %s", tier)
	}

	a, err := data.CreateAudit(c.Context, cfg.DB, tier,
		c.String(auditAddressFlag.Name), c.String(auditLandlordFlag.Name))
	if err != nil {
		return fmt.Errorf("creating audit: %w", err)
	}
	return encode(a)
}

func cmdAuditSubmit(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	answers, err := loadAnswersFile(c.String(answersFileFlag.Name))
	if err != nil {
		return err
	}

	result, err := runSubmission(c.Context, cfg, c.String(auditTokenFlag.Name), answers)
	if err != nil {
		return err
	}
	return encode(result)
}

func cmdAuditResult(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	result, err := data.GetResult(c.Context, cfg.DB, c.String(auditTokenFlag.Name))
	if err != nil {
		return fmt.Errorf("loading result: %w", err)
	}
	return encode(result)
}

func cmdAuditRescore(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	if !c.Bool(rescoreAllFlag.Name) {
		return fmt.Errorf("nothing to do, pass --all to rescore every submitted audit")
	}

	tokens, err := data.ListAuditTokens(c.Context, cfg.DB, data.AuditStatusSubmitted)
	if err != nil {
		return fmt.Errorf("listing audits: %w", err)
	}

	var done atomic.Int64
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(rescoreConcurrency)

	for _, token := range tokens {
		g.Go(func() error {
			if _, err := rescoreAudit(ctx, cfg, token); err != nil {
				return err
			}
			done.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("rescore complete", "audits", done.Load())
	return nil
}
