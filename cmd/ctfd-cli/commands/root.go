package commands

import (
	"context"
	"ctfd-cli/lib/configutil"
	"ctfd-cli/lib/restyutil"
	"ctfd-cli/lib/scrapers/ctfd/core"
	"ctfd-cli/lib/sessionstore"
	"ctfd-cli/lib/telemetry"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

const serviceName = "ctfd-cli"

// Config holds the defaults read from the config file, flags take
// precedence over every field.
type Config struct {
	Url              string `json:"url"`
	User             string `json:"user"`
	UserAgent        string `json:"user_agent"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	AlertLineIndex   int    `json:"alert_line_index"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath  string
	sessionPath string
	harPath     string
	debug       bool

	config   Config
	recorder *restyutil.HarRecorder
	tel      telemetry.Telemetry
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, serviceName, "config.json5")
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "ctfd-cli",
		Short:             "ctfd-cli is a CLI for logging into a CTFd instance and scraping its pages.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", defaultConfigPath(), "The config file to read defaults from.")
	flags.StringVar(&a.sessionPath, "session", "", "The file the session is saved to. (default <user config dir>/ctfd-cli/session.json)")
	flags.StringVar(&a.harPath, "har", "", "Record every HTTP exchange to this HAR file, passwords and cookie values are redacted.")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging.")

	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	telemetry.InitSlog(a.debug)

	tel, err := telemetry.SetupFromEnv(cmd.Context(), serviceName)
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	a.tel = tel

	if a.configPath != "" {
		a.config, err = configutil.ReadOptional[Config](a.configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if a.harPath != "" {
		a.recorder = restyutil.NewHarRecorder(serviceName)
	}
	return nil
}

func (a *app) teardown(ctx context.Context) {
	if a.recorder != nil {
		err := a.recorder.WriteFile(a.harPath)
		if err != nil {
			fmt.Fprintf(a.stderr, "Warning: could not write HAR file %s: %v\n", a.harPath, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*5)
	defer cancel()
	err := a.tel.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}
}

func (a *app) clientOptions() core.ClientOptions {
	return core.ClientOptions{
		UserAgent:        a.config.UserAgent,
		Timeout:          time.Duration(a.config.TimeoutSeconds) * time.Second,
		AlertLineIndex:   a.config.AlertLineIndex,
		CloudflareBypass: a.config.CloudflareBypass,
		Recorder:         a.recorder,
	}
}

func (a *app) store() (sessionstore.Store, error) {
	if a.sessionPath != "" {
		return sessionstore.NewStore(a.sessionPath), nil
	}
	path, err := sessionstore.DefaultPath()
	if err != nil {
		return sessionstore.Store{}, err
	}
	return sessionstore.NewStore(path), nil
}

// Run executes the command line given by args and returns the process
// exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	a.teardown(ctx)
	if err != nil {
		fmt.Fprintln(stderr, diagnostic(err))
		return exitCode(err)
	}
	return exitOk
}
