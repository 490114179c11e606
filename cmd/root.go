package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errConflicts signals a completed check that found problems; the reports are already printed.
var errConflicts = errors.New("dependency conflicts found")

var rootCmd = &cobra.Command{
	Use:   "pipcheck",
	Short: "Keep setup.py consistent with Pipfile and Pipfile.lock",
	Long: "pipcheck compares the install_requires and dependency_links of setup.py against the " +
		"packages of Pipfile or Pipfile.lock, and exports Pipfile packages in setup.py form.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errConflicts) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .pipcheck.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("dir", "C", ".", "project directory holding setup.py and the Pipfiles")
	flags.BoolP("lockfile", "l", false, "check against Pipfile.lock instead of Pipfile")
	flags.StringP("format", "o", "text", "output format: text, json or yaml")
	flags.String("repo", "", "read the manifests from a GitHub repository instead of --dir")
	flags.String("ref", "", "commit sha, branch or tag of --repo")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("no_color", flags.Lookup("no-color"))
	_ = viper.BindPFlag("dir", flags.Lookup("dir"))
	_ = viper.BindPFlag("lockfile", flags.Lookup("lockfile"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("github.repo", flags.Lookup("repo"))
	_ = viper.BindPFlag("github.ref", flags.Lookup("ref"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".pipcheck")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("PIPCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}
