// Package config loads server settings from flags, DELPHI_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/thewoodfish/property-delphi-contract/internal/limiter"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

var (
	ErrMissingJWTKey = errors.New("config: missing jwt signing key (--jwt-key or DELPHI_JWT_KEY)")
	ErrUnknownStore  = errors.New("config: unknown store")
	ErrMissingDSN    = errors.New("config: postgres store needs --dsn")
	ErrTLSPair       = errors.New("config: --tls-cert and --tls-key must be set together")
	ErrLoginPolicy   = errors.New("config: login limiter settings must be positive")
)

// Server holds delphi-server settings.
type Server struct {
	Addr        string
	MetricsAddr string // empty disables the metrics listener

	Store string
	DSN   string

	JWTKey    string
	AccessTTL time.Duration

	TLSCert string
	TLSKey  string

	Dev       bool // development logger and server reflection
	StrictCID bool // content addresses must parse as CIDs

	LoginWindow   time.Duration
	LoginMaxFails int
	LoginBlockFor time.Duration
}

func defineServerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML config file")
	fs.String("addr", ":8443", "gRPC listen address")
	fs.String("metrics-addr", ":9090", "Prometheus /metrics listen address (empty to disable)")
	fs.String("store", StoreMemory, "registry store: memory or postgres")
	fs.String("dsn", "", "PostgreSQL DSN")
	fs.String("jwt-key", "", "HS256 signing key (required)")
	fs.Duration("access-ttl", 15*time.Minute, "access token TTL")
	fs.String("tls-cert", "", "TLS certificate (PEM)")
	fs.String("tls-key", "", "TLS private key (PEM)")
	fs.Bool("dev", false, "development logging and server reflection")
	fs.Bool("strict-cid", false, "require content addresses to be valid CIDs")
	fs.Duration("login-window", limiter.DefaultPolicy.Window, "window in which failed logins are counted")
	fs.Int("login-max-fails", limiter.DefaultPolicy.MaxFails, "failed logins that trigger a lockout")
	fs.Duration("login-block-for", limiter.DefaultPolicy.BlockFor, "lockout duration")
}

// LoadServer parses args and resolves every setting. pflag.ErrHelp is
// returned unchanged when -h is given.
func LoadServer(args []string) (Server, error) {
	fs := pflag.NewFlagSet("delphi-server", pflag.ContinueOnError)
	defineServerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("DELPHI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Server{}, err
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Server{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := Server{
		Addr:          v.GetString("addr"),
		MetricsAddr:   v.GetString("metrics-addr"),
		Store:         v.GetString("store"),
		DSN:           v.GetString("dsn"),
		JWTKey:        v.GetString("jwt-key"),
		AccessTTL:     v.GetDuration("access-ttl"),
		TLSCert:       v.GetString("tls-cert"),
		TLSKey:        v.GetString("tls-key"),
		Dev:           v.GetBool("dev"),
		StrictCID:     v.GetBool("strict-cid"),
		LoginWindow:   v.GetDuration("login-window"),
		LoginMaxFails: v.GetInt("login-max-fails"),
		LoginBlockFor: v.GetDuration("login-block-for"),
	}
	return s, s.Validate()
}

// Validate reports the first inconsistent setting.
func (s Server) Validate() error {
	if s.JWTKey == "" {
		return ErrMissingJWTKey
	}
	switch s.Store {
	case StoreMemory:
	case StorePostgres:
		if s.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownStore, s.Store)
	}
	if (s.TLSCert == "") != (s.TLSKey == "") {
		return ErrTLSPair
	}
	if s.LoginWindow <= 0 || s.LoginMaxFails <= 0 || s.LoginBlockFor <= 0 {
		return ErrLoginPolicy
	}
	return nil
}

// TLS reports whether the gRPC listener serves TLS.
func (s Server) TLS() bool { return s.TLSCert != "" }

// LoginPolicy returns the limiter policy for login attempts.
func (s Server) LoginPolicy() limiter.Policy {
	return limiter.Policy{Window: s.LoginWindow, MaxFails: s.LoginMaxFails, BlockFor: s.LoginBlockFor}
}
