package cli

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "ractl"
	keyringUser    = "api_key"
)

var (
	apiKeyFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "API key required by the server's mutating endpoints",
		Required: true,
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Manage the API key used by the HTTP server",
		Subcommands: []*cli.Command{
			{
				Name:   "set",
				Usage:  "Store the API key in the OS keychain",
				Action: cmdAuthSet,
				Flags: []cli.Flag{
					apiKeyFlag,
				},
			},
			{
				Name:   "clear",
				Usage:  "Remove the stored API key (server runs open)",
				Action: cmdAuthClear,
			},
		},
	}
)

func cmdAuthSet(c *cli.Context) error {
	key := c.String(apiKeyFlag.Name)
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}
	slog.Info("API key saved to OS keychain")
	return nil
}

func cmdAuthClear(c *cli.Context) error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("clearing API key: %w", err)
	}
	slog.Info("API key cleared")
	return nil
}

// getAPIKey returns the stored key, or empty when none is configured.
func getAPIKey() string {
	key, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		if err != keyring.ErrNotFound {
			slog.Debug("keychain unavailable", "error", err)
		}
		return ""
	}
	return key
}
