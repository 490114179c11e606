package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dephub/pipcheck/internal/ui"
	"github.com/dephub/pipcheck/pipcheck"
	"github.com/dephub/pipcheck/providers/parsers"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print Pipfile.lock packages as setup.py keyword arguments",
	Long: "Renders the default packages of Pipfile.lock (or Pipfile with --pipfile) as install_requires " +
		"and dependency_links values ready to paste into setup.py.",
	Args: cobra.NoArgs,
	RunE: runExportCmd,
}

func init() {
	exportCmd.Flags().BoolP("pipfile", "p", false, "export Pipfile instead of Pipfile.lock")
	exportCmd.Flags().BoolP("dev", "d", false, "export develop packages as the 'dev' extra")
	exportCmd.Flags().Bool("use-dependency-links", false, "write vcs and file packages to dependency_links instead of PEP 508 direct references")

	_ = viper.BindPFlag("export.use_dependency_links", exportCmd.Flags().Lookup("use-dependency-links"))

	rootCmd.AddCommand(exportCmd)
}

type exportOptions struct {
	Type               pipcheck.ManifestType
	Dev                bool
	UseDependencyLinks bool
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	dev, _ := cmd.Flags().GetBool("dev")
	pipfile, _ := cmd.Flags().GetBool("pipfile")
	opts := exportOptions{Type: exportManifestType(pipfile), Dev: dev, UseDependencyLinks: e.cfg.Export.UseDependencyLinks}

	exported, err := runExport(ctx, e.src, opts, e.log)
	if err != nil {
		return err
	}
	return ui.NewRenderer(cmd.OutOrStdout(), e.cfg.Format, e.cfg.NoColor).Exported(exported)
}

// exportManifestType picks the locked packages unless the Pipfile is asked for.
func exportManifestType(pipfile bool) pipcheck.ManifestType {
	if pipfile {
		return pipcheck.PipfileType
	}
	return pipcheck.LockfileType
}

func runExport(ctx context.Context, src pipcheck.ManifestSource, opts exportOptions, log *zap.Logger) (pipcheck.Exported, error) {
	exported, err := exportSection(ctx, src, opts, parsers.Default)
	if err != nil {
		return pipcheck.Exported{}, err
	}
	if opts.Dev {
		dev, err := exportSection(ctx, src, opts, parsers.Develop)
		if err != nil {
			return pipcheck.Exported{}, err
		}
		exported = exported.WithExtra("dev", dev)
	}
	if len(exported.Skipped) != 0 {
		log.Warn("local packages omitted from setup.py", zap.Strings("packages", exported.Skipped))
	}
	return exported, nil
}

func exportSection(ctx context.Context, src pipcheck.ManifestSource, opts exportOptions, section parsers.Section) (pipcheck.Exported, error) {
	packages, err := src.Packages(ctx, opts.Type, section)
	if err != nil {
		return pipcheck.Exported{}, err
	}
	exported, err := pipcheck.Export(packages, opts.UseDependencyLinks)
	if err != nil {
		return pipcheck.Exported{}, fmt.Errorf("%s packages: %w", section, err)
	}
	return exported, nil
}
