package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"webplots/internal/config"
	"webplots/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "webplots",
	Short:         "WebPlots - interactive CSV plotting server",
	Long:          `WebPlots turns CSV data into scatter and histogram charts: filter, group, colour and thin out points, then export the result as Plotly HTML, SVG or JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./webplots.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json, text)")

	rootCmd.AddCommand(serveCmd, renderCmd, configCmd)
}

// loadConfig binds the command's flags over the file and environment
// settings.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v := config.NewViper()
	bindings["logging.level"] = "log-level"
	bindings["logging.format"] = "log-format"
	if err := bindFlags(v, cmd, bindings); err != nil {
		return nil, err
	}
	return config.Load(v, cfgFile)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		// Unchanged flags must not shadow file and environment values.
		if !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, map[string]string{})
		if err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
