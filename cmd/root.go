package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwbudde/qgpep/internal/sdp"
)

// envPrefix prefixes the environment variables that override flags:
// --gap-tol becomes QGPEP_GAP_TOL.
const envPrefix = "QGPEP"

func newRootCmd() *cobra.Command {
	vip := viper.New()

	rootCmd := &cobra.Command{
		Use:   "qgpep",
		Short: "Worst-case guarantees of first-order methods via performance estimation",
		Long: `qgpep computes tight worst-case convergence guarantees of first-order
methods on convex functions with a quadratic upper bound (QG+) and related
classes, by solving performance estimation problems as semidefinite programs,
and compares them with their closed-form bounds.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindConfig(vip, cmd); err != nil {
				return err
			}

			// Setup logger
			var level slog.Level
			switch vip.GetString("log-level") {
			case "debug":
				level = slog.LevelDebug
			case "info":
				level = slog.LevelInfo
			case "warn":
				level = slog.LevelWarn
			case "error":
				level = slog.LevelError
			default:
				level = slog.LevelInfo
			}

			opts := &slog.HandlerOptions{Level: level}
			handler := slog.NewJSONHandler(cmd.OutOrStdout(), opts)
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("config", "", "Config file (yaml, json or toml) providing flag values")
	def := sdp.DefaultOptions()
	flags.Int("max-iter", def.MaxIter, "Maximum interior-point iterations")
	flags.Float64("gap-tol", def.GapTol, "Relative duality gap tolerance")
	flags.Float64("feas-tol", def.FeasTol, "Relative feasibility tolerance")
	flags.Float64("inaccurate-tol", def.InaccurateTol, "Tolerance accepted when the solver stalls")

	rootCmd.AddCommand(
		newVerifyCmd(vip),
		newListCmd(),
		newSweepCmd(vip),
		newPlotCmd(vip),
		newTuneCmd(vip),
		newVersionCmd(),
	)
	return rootCmd
}

// bindConfig layers flags, QGPEP_* environment variables and the optional
// config file into vip, in decreasing precedence.
func bindConfig(vip *viper.Viper, cmd *cobra.Command) error {
	bind := func(fs *pflag.FlagSet) error {
		if err := vip.BindPFlags(fs); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
		return nil
	}
	if err := bind(cmd.Flags()); err != nil {
		return err
	}
	if err := bind(cmd.InheritedFlags()); err != nil {
		return err
	}

	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if path := vip.GetString("config"); path != "" {
		vip.SetConfigFile(path)
		if err := vip.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func solverOptions(vip *viper.Viper) sdp.Options {
	return sdp.Options{
		MaxIter:       vip.GetInt("max-iter"),
		GapTol:        vip.GetFloat64("gap-tol"),
		FeasTol:       vip.GetFloat64("feas-tol"),
		InaccurateTol: vip.GetFloat64("inaccurate-tol"),
	}
}
