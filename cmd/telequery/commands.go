package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-telequery/internal/config"
	interrors "github.com/jrsteele09/go-telequery/internal/errors"
	"github.com/jrsteele09/go-telequery/telequery"
	"github.com/jrsteele09/go-telequery/token"
	"github.com/spf13/cobra"
)

func newRootCommand(c config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "telequery",
		Short:         "Authenticate against a DataHalt server and run signed queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newAuthCommand(c),
		newQueryCommand(c),
		newMintCommand(),
		newDemoCommand(c),
	)
	return cmd
}

func newAuthCommand(c config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate and print the auth info token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			auth, err := client.Authenticate(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"authInfoToken": auth.AuthInfoToken,
				"expiresAt":     auth.ExpiresAt,
			})
		},
	}
}

func newQueryCommand(c config.Config) *cobra.Command {
	var to, payloadFile, authInfoToken string

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run a query, either one statement or a raw TeleQuery payload from --file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload any
			switch {
			case payloadFile != "":
				raw, err := readPayload(payloadFile, cmd.InOrStdin())
				if err != nil {
					return err
				}
				payload = json.RawMessage(raw)
			case len(args) == 1:
				payload = telequery.NewEnvelope(to, args[0])
			default:
				return fmt.Errorf("either a statement or --file is required")
			}

			client, err := newClient(c)
			if err != nil {
				return err
			}

			if authInfoToken == "" {
				authInfoToken, err = telequery.NewSession(client, telequery.WithRenewMargin(c.GetRenewMargin())).Token(cmd.Context())
				if err != nil {
					return err
				}
			}

			data, err := client.Query(cmd.Context(), authInfoToken, payload)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVar(&to, "to", "result", "name the result is mapped to")
	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "file holding a raw JSON payload, - for stdin")
	cmd.Flags().StringVar(&authInfoToken, "auth-info-token", "", "reuse a token from a previous auth call")
	return cmd
}

func newMintCommand() *cobra.Command {
	var authInfoToken, body, checksum string
	var lifetime time.Duration

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Print the bearer token that would be sent with a body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := token.ChecksumByName(checksum)
			if err != nil {
				return err
			}
			bearer, err := token.NewMinter().Mint(lifetime, authInfoToken, sum([]byte(body)))
			if err != nil {
				return err
			}
			decoded, err := token.Decode(bearer)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"token":   bearer,
				"header":  json.RawMessage(decoded.HeaderJSON),
				"payload": json.RawMessage(decoded.PayloadJSON),
			})
		},
	}
	cmd.Flags().StringVar(&authInfoToken, "auth-info-token", "", "auth info token to embed")
	cmd.Flags().StringVar(&body, "body", "", "exact request body the token is bound to")
	cmd.Flags().StringVar(&checksum, "checksum", token.ChecksumMD5, "body checksum: md5 or sha256")
	cmd.Flags().DurationVar(&lifetime, "lifetime", token.DefaultLifetime, "token lifetime")
	_ = cmd.MarkFlagRequired("auth-info-token")
	return cmd
}

// newDemoCommand authenticates once and runs the two sample queries against the keyval table
func newDemoCommand(c config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Authenticate and run sample queries against the keyval table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			displayAppname(out, c.GetAppName())

			client, err := newClient(c)
			if err != nil {
				return err
			}
			session := telequery.NewSession(client, telequery.WithRenewMargin(c.GetRenewMargin()))

			samples := []telequery.Envelope{
				telequery.NewEnvelope("keyval", "select * from keyval"),
				telequery.NewEnvelope("total", "select count(*) as total from keyval"),
			}
			for _, envelope := range samples {
				fmt.Fprintln(out, "TeleQuery data:")
				if err := printJSON(out, envelope); err != nil {
					return err
				}
				data, err := session.Query(cmd.Context(), envelope)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "TeleQuery result:")
				if err := printJSON(out, data); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newClient(c config.Config) (*telequery.Client, error) {
	if c.GetClientID() == "" {
		return nil, interrors.Wrapf(interrors.ErrMissingEnv, "TELEQUERY_CLIENT_ID")
	}
	if c.GetOTPKey() == "" {
		return nil, interrors.Wrapf(interrors.ErrMissingEnv, "TELEQUERY_OTP_KEY")
	}

	checksum, err := token.ChecksumByName(c.GetChecksum())
	if err != nil {
		return nil, interrors.Wrapf(interrors.ErrInvalidValue, "TELEQUERY_CHECKSUM %v", err)
	}

	return telequery.New(telequery.Config{
		AuthURL:  c.GetAuthURL(),
		QueryURL: c.GetQueryURL(),
		Credentials: telequery.Credentials{
			ClientID:  c.GetClientID(),
			OTPSecret: c.GetOTPKey(),
		},
		Timeout: c.GetTimeout(),
	},
		telequery.WithChecksum(checksum),
		telequery.WithTokenLifetime(c.GetTokenLifetime()),
	)
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return []byte(strings.TrimSpace(string(raw))), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
