package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rentwatch/ractl/pkg/audit"
	"github.com/rentwatch/ractl/pkg/data"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	catalogFileFlag = &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path to the catalog YAML file",
		Required: true,
	}

	catalogTierFlag = &cli.StringFlag{
		Name:     "tier",
		Usage:    "Audit tier (tier_1 .. tier_5)",
		Required: true,
	}

	catalogIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "Question id (e.g. 3.2)",
		Required: true,
	}

	catalogCmd = &cli.Command{
		Name:            "catalog",
		Aliases:         []string{"c"},
		Usage:           "Question catalog operations",
		HideHelpCommand: true,
		Subcommands: []*cli.Command{
			{
				Name:    "import",
				Usage:   "Import (upsert) question definitions from a YAML file",
				Aliases: []string{"i"},
				Action:  cmdCatalogImport,
				Flags: []cli.Flag{
					catalogFileFlag,
					debugFlag,
				},
			},
			{
				Name:    "list",
				Usage:   "List active questions for a tier",
				Aliases: []string{"l"},
				Action:  cmdCatalogList,
				Flags: []cli.Flag{
					catalogTierFlag,
				},
			},
			{
				Name:   "retire",
				Usage:  "Deactivate a question without invalidating collected answers",
				Action: cmdCatalogRetire,
				Flags: []cli.Flag{
					catalogIDFlag,
				},
			},
		},
	}
)

// catalogFile is the on-disk shape of an importable catalog.
type catalogFile struct {
	Questions []audit.QuestionDefinition `yaml:"questions"`
}

func loadCatalogFile(path string) ([]audit.QuestionDefinition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}
	if len(cf.Questions) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no questions", path)
	}

	// Boundary validation: shape is checked once here so the core never
	// re-checks it.
	for _, q := range cf.Questions {
		if err := validate.Struct(q); err != nil {
			return nil, fmt.Errorf("invalid question definition %q: %w", q.ID, err)
		}
	}
	return cf.Questions, nil
}

func cmdCatalogImport(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	questions, err := loadCatalogFile(c.String(catalogFileFlag.Name))
	if err != nil {
		return err
	}

	if err := data.SaveQuestions(c.Context, cfg.DB, questions); err != nil {
		return fmt.Errorf("saving questions: %w", err)
	}

	slog.Info("catalog imported", "questions", len(questions))
	return nil
}

func cmdCatalogList(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	tier := c.String(catalogTierFlag.Name)
	if !data.Contains(audit.Tiers, tier) {
		return fmt.Errorf("unknown tier: %s", tier)
	}

	list, err := data.ListQuestions(c.Context, cfg.DB, tier)
	if err != nil {
		return fmt.Errorf("listing questions: %w", err)
	}
	return encode(list)
}

func cmdCatalogRetire(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	id := c.String(catalogIDFlag.Name)
	if err := data.DeactivateQuestion(c.Context, cfg.DB, id); err != nil {
		return fmt.Errorf("retiring question: %w", err)
	}

	slog.Info("question retired", "id", id)
	return nil
}
