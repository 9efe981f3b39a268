package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type config struct {
	backendURL string
	stateDir   string
	verbose    bool
}

func (c *config) validate() error {
	u, err := url.Parse(c.backendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend url: %q", c.backendURL)
	}
	return nil
}

// hubURL derives the websocket endpoint for a room from the backend url.
func (c *config) hubURL(roomID string) string {
	u := strings.Replace(c.backendURL, "http", "ws", 1)
	return u + "/hub/room?roomId=" + url.QueryEscape(roomID)
}

func (c *config) roomURL(roomID string) string {
	return c.backendURL + "/room/" + roomID
}

func (c *config) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "questbingo")
}

func newRootCmd(cfg *config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUESTBINGO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "questbingo",
		Short:         "Terminal client for quest bingo rooms.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.backendURL, "backend-url", "http://localhost:8080", "base url of the game backend (env: QUESTBINGO_BACKEND_URL)")
	fs.StringVar(&cfg.stateDir, "state-dir", defaultStateDir(), "directory for local client state (env: QUESTBINGO_STATE_DIR)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: QUESTBINGO_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(
		newCreateCmd(cfg),
		newJoinCmd(cfg),
		newRoomsCmd(cfg),
		newDevCmd(),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("questbingo v{{.Version}}\n")

	return cmd
}
