package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/winklock/internal/action"
	"github.com/ayusman/winklock/internal/config"
)

// errFallback marks a configuration that would be replaced by the defaults.
var errFallback = errors.New("configuration falls back to defaults")

var strict bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file",
	Long:  `Prints the effective configuration and lint findings. Exits non-zero when the file cannot be used and the defaults would apply.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.OutOrStdout(), config.NewLoader(configPath, nil), strict)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&strict, "strict", false, "also fail on lint findings and invalid actions")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(w io.Writer, loader *config.Loader, strict bool) error {
	cfg, loadErr := loader.LoadStrict()
	if loadErr != nil {
		fmt.Fprintf(w, "%s: %v\n", loader.Path(), loadErr)
		fmt.Fprintln(w, "defaults in effect:")
		cfg = config.Default()
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	fmt.Fprintln(w, "---")
	w.Write(out)

	findings := config.Lint(cfg)
	for _, f := range findings {
		fmt.Fprintf(w, "lint: %s\n", f)
	}

	actionErr := action.NewRegistry().Configure(cfg.Actions)
	if actionErr != nil {
		fmt.Fprintf(w, "actions: %v\n", actionErr)
	}

	switch {
	case loadErr != nil:
		return fmt.Errorf("%w: %v", errFallback, loadErr)
	case strict && len(findings) > 0:
		return fmt.Errorf("%d lint findings", len(findings))
	case strict && actionErr != nil:
		return fmt.Errorf("invalid actions: %w", actionErr)
	}

	fmt.Fprintln(w, "ok")
	return nil
}
