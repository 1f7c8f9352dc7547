package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 60
	serverMaxHeaderBytes      = 20
	serverPortDefault         = 8080
)

var (
	portFlag = &cli.IntFlag{
		Name:     "port",
		Usage:    "Port on which the server will listen",
		Value:    serverPortDefault,
		Required: false,
	}

	serverCmd = &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP API server",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			portFlag,
			debugFlag,
		},
	}
)

func cmdStartServer(c *cli.Context) error {
	applyFlags(c)
	cfg := getConfig(c)

	port := c.Int(portFlag.Name)
	if !c.IsSet(portFlag.Name) && cfg.Conf.ServerPort != 0 {
		port = cfg.Conf.ServerPort
	}
	address := fmt.Sprintf("127.0.0.1:%d", port)

	mux := makeRouter(cfg)
	s := &http.Server{
		Addr:           address,
		Handler:        mux,
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error starting server", "error", err)
		}
	}()

	slog.Info("server started", "address", fmt.Sprintf("http://%s", address))

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

func makeRouter(cfg *appConfig) *http.ServeMux {
	apiKey := getAPIKey()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /catalog/questions", questionsHandler(cfg))

	mux.HandleFunc("POST /audit", requireAPIKey(apiKey, createAuditHandler(cfg)))
	mux.HandleFunc("POST /audit/{token}/submit", requireAPIKey(apiKey, submitHandler(cfg)))
	mux.HandleFunc("GET /audit/{token}", auditHandler(cfg))
	mux.HandleFunc("GET /audit/{token}/result", resultHandler(cfg))

	return mux
}

// requireAPIKey guards mutating endpoints with a bearer key when one is
// configured; with no key stored the server runs open for local use.
func requireAPIKey(key string, next http.HandlerFunc) http.HandlerFunc {
	if key == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+key {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}
