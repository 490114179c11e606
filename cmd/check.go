package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dephub/pipcheck/internal/ui"
	"github.com/dephub/pipcheck/internal/watch"
	"github.com/dephub/pipcheck/pipcheck"
	"github.com/dephub/pipcheck/providers/parsers"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check setup.py against Pipfile or Pipfile.lock",
	Long: "Reports version conflicts between install_requires and the Pipfile, dependency_links " +
		"disagreeing with vcs packages, and Pipfile packages missing from setup.py.",
	Args: cobra.NoArgs,
	RunE: runCheckCmd,
}

func init() {
	checkCmd.Flags().BoolP("strict", "s", false, "also report install_requires ranges narrower than the Pipfile ones")
	checkCmd.Flags().BoolP("ignore-local", "i", false, "skip local packages of the default section instead of failing")
	checkCmd.Flags().Bool("watch", false, "rerun the check whenever a manifest changes")

	_ = viper.BindPFlag("strict", checkCmd.Flags().Lookup("strict"))
	_ = viper.BindPFlag("ignore_local", checkCmd.Flags().Lookup("ignore-local"))

	rootCmd.AddCommand(checkCmd)
}

// checkOptions controls a single check run.
type checkOptions struct {
	Type        pipcheck.ManifestType
	Strict      bool
	IgnoreLocal bool
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	r := ui.NewRenderer(cmd.OutOrStdout(), e.cfg.Format, e.cfg.NoColor)
	r.Formatter.Authoritative = authoritativeLabel(e.cfg.Lockfile)
	opts := checkOptions{Type: manifestType(e.cfg.Lockfile), Strict: e.cfg.Strict, IgnoreLocal: e.cfg.IgnoreLocal}

	if watchMode, _ := cmd.Flags().GetBool("watch"); watchMode {
		if e.cfg.GitHub.Repo != "" {
			return errors.New("--watch can not be used with --repo")
		}
		w, err := watch.NewWatcher(e.cfg.Dir, e.log, "setup.py", "Pipfile", "Pipfile.lock")
		if err != nil {
			return fmt.Errorf("unable to watch %s: %w", e.cfg.Dir, err)
		}
		return w.Run(ctx, func(ctx context.Context) error {
			// Failed runs are printed and wait for the next change.
			if _, err := runCheck(ctx, e.src, opts, r, e.log); err != nil {
				r.Error(err)
			}
			return nil
		})
	}

	found, err := runCheck(ctx, e.src, opts, r, e.log)
	if err != nil {
		return err
	}
	if found {
		return errConflicts
	}
	return nil
}

// runCheck reads the manifests, checks them and renders the reports. It returns true when
// reports were found.
func runCheck(ctx context.Context, src pipcheck.ManifestSource, opts checkOptions, r *ui.Renderer, log *zap.Logger) (bool, error) {
	packages, err := src.Packages(ctx, opts.Type, parsers.Default)
	if err != nil {
		return false, err
	}
	local, remote, err := pipcheck.SplitLocal(packages)
	if err != nil {
		return false, err
	}
	if len(local) != 0 {
		if !opts.IgnoreLocal {
			return false, fmt.Errorf("local package found in default dependency: %s, "+
				"make it a dev dependency or rerun with --ignore-local", strings.Join(local, ", "))
		}
		log.Warn("local packages skipped", zap.Strings("packages", local))
	}

	declared, err := src.Declared(ctx)
	if err != nil {
		return false, err
	}

	checker, err := pipcheck.NewChecker(declared, remote, pipcheck.WithStrict(opts.Strict))
	if err != nil {
		return false, fmt.Errorf("dependency check failed: %w", err)
	}
	reports, err := checker.Check()
	if err != nil {
		return false, fmt.Errorf("dependency check failed: %w", err)
	}
	log.Debug("check finished", zap.Int("reports", len(reports)), zap.Bool("strict", opts.Strict))

	if err := r.Reports(reports); err != nil {
		return false, err
	}
	return len(reports) != 0, nil
}
