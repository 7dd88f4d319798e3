/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/greenlight/roster"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind         string
	players      int
	pollInterval time.Duration
	port         int
	prefix       string
	profile      bool
	storage      string
	storageKey   string
	storagePath  string
	tlsCert      string
	tlsKey       string
	verbose      bool
	version      bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.players < 1 || c.players > 9999 {
		return fmt.Errorf("invalid player count (must be between 1-9999 inclusive): %d", c.players)
	}
	if c.storageKey == "" {
		return errors.New("--storage-key must not be empty")
	}

	switch c.storage {
	case "memory":
	case "file", "sqlite":
		if c.storagePath == "" {
			return fmt.Errorf("--storage-path is required for %s storage", c.storage)
		}
	default:
		return fmt.Errorf("invalid storage backend (must be one of memory, file, sqlite): %q", c.storage)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GREENLIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "greenlight",
		Short:         "A survivor board for elimination games, with a controller page and a live display page.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: GREENLIGHT_BIND)")
	fs.IntVarP(&cfg.players, "players", "n", roster.DefaultSize, "number of players on the roster (env: GREENLIGHT_PLAYERS)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", time.Second, "how often sqlite storage is checked for changes made by other instances (env: GREENLIGHT_POLL_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: GREENLIGHT_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: GREENLIGHT_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: GREENLIGHT_PROFILE)")
	fs.StringVarP(&cfg.storage, "storage", "s", "memory", "storage backend: memory, file, or sqlite (env: GREENLIGHT_STORAGE)")
	fs.StringVar(&cfg.storageKey, "storage-key", roster.DefaultKey, "key the roster is stored under (env: GREENLIGHT_STORAGE_KEY)")
	fs.StringVar(&cfg.storagePath, "storage-path", "", "directory (file) or database path (sqlite) for persistent storage (env: GREENLIGHT_STORAGE_PATH)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: GREENLIGHT_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: GREENLIGHT_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: GREENLIGHT_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: GREENLIGHT_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("greenlight v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
