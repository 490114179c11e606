package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dephub/pipcheck/internal/config"
	"github.com/dephub/pipcheck/internal/logging"
	"github.com/dephub/pipcheck/pipcheck"
)

// env bundles what every command needs after config loading.
type env struct {
	cfg config.Config
	log *zap.Logger
	src pipcheck.ManifestSource
}

func newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logging.New(cfg.Verbose)
	if err != nil {
		return nil, err
	}
	src, err := newSource(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, src: src}, nil
}

// newSource reads manifests from the configured GitHub repository, or from the project directory.
func newSource(ctx context.Context, cfg config.Config, log *zap.Logger) (pipcheck.ManifestSource, error) {
	if cfg.GitHub.Repo == "" {
		log.Debug("reading manifests from directory", zap.String("dir", cfg.Dir))
		return pipcheck.NewDirSource(cfg.Dir, pipcheck.WithLogger(log)), nil
	}
	log.Debug("reading manifests from github",
		zap.String("repo", cfg.GitHub.Repo),
		zap.String("ref", cfg.GitHub.Ref),
		zap.Bool("authenticated", cfg.GitHub.Token != ""))
	return pipcheck.NewGitSource(pipcheck.NewGitHubClient(ctx, cfg.GitHub.Token), cfg.GitHub.Repo, cfg.GitHub.Ref, pipcheck.WithLogger(log))
}

func manifestType(lockfile bool) pipcheck.ManifestType {
	if lockfile {
		return pipcheck.LockfileType
	}
	return pipcheck.PipfileType
}

// authoritativeLabel names the authoritative manifest in report messages.
func authoritativeLabel(lockfile bool) string {
	if lockfile {
		return "Pipfile.lock"
	}
	return pipcheck.DefaultFormatter.Authoritative
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
