// Command delphi is a CLI client for the property registry.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/thewoodfish/property-delphi-contract/internal/api"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe prints gRPC errors as "Code: message".
func describe(err error) string {
	if st, ok := status.FromError(err); ok {
		return fmt.Sprintf("%s: %s", st.Code(), st.Message())
	}
	return err.Error()
}

// app carries resolved settings into subcommands.
type app struct {
	v   *viper.Viper
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}
	root := &cobra.Command{
		Use:           "delphi",
		Short:         "delphi talks to a property registry server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default $XDG_CONFIG_HOME/delphi/config.yaml)")
	pf.String("addr", "localhost:8443", "server address")
	pf.String("cacert", "", "CA certificate (PEM)")
	pf.Bool("insecure", false, "skip certificate verification (dev)")
	pf.Bool("plaintext", false, "connect without TLS (dev)")
	pf.Duration("timeout", 30*time.Second, "per-command timeout")

	root.AddCommand(
		newVersionCmd(a),
		newEnrollCmd(a),
		newLoginCmd(a),
		newAccountCmd(a),
		newTypeCmd(a),
		newClaimCmd(a),
		newClaimsCmd(a),
		newPropertyCmd(a),
		newTransferCmd(a),
		newSignCmd(a),
		newStatusCmd(a),
		newCIDCmd(a),
	)
	return root
}

// loadConfig layers flags over DELPHI_* env over the config file.
func (a *app) loadConfig(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix("DELPHI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(cfgDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || v.GetString("config") != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.v.GetDuration("timeout"))
}

// ---- grpc dial ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}

func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev flag
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// dial connects to the server, attaching the saved token when authed is set.
func (a *app) dial(authed bool) (*api.Client, func(), error) {
	plaintext := a.v.GetBool("plaintext")
	var opts []grpc.DialOption
	if plaintext {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		creds, err := loadTLS(a.v.GetString("cacert"), a.v.GetBool("insecure"))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.WithTransportCredentials(creds))
	}
	if authed {
		s, err := loadSession()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: s.AccessToken, secure: !plaintext}))
	}
	cc, err := grpc.NewClient(a.v.GetString("addr"), opts...)
	if err != nil {
		return nil, nil, err
	}
	return api.NewClient(cc), func() { _ = cc.Close() }, nil
}
