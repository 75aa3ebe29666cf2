package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thewoodfish/property-delphi-contract/internal/api"
	"github.com/thewoodfish/property-delphi-contract/internal/cidutil"
	"github.com/thewoodfish/property-delphi-contract/internal/convert"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(a.out, "delphi %s (%s)\n", version, buildDate)
			return err
		},
	}
}

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "login")
	cmd.Flags().StringP("password", "p", "", "password")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("password")
}

func newEnrollCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Create a login bound to a new principal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, _ := cmd.Flags().GetString("user")
			pass, _ := cmd.Flags().GetString("password")
			cli, closeFn, err := a.dial(false)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			resp, err := cli.Enroll(ctx, &api.EnrollRequest{Login: user, Password: pass})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, resp.Principal)
			return err
		},
	}
	credentialFlags(cmd)
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and save the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, _ := cmd.Flags().GetString("user")
			pass, _ := cmd.Flags().GetString("password")
			cli, closeFn, err := a.dial(false)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			resp, err := cli.Login(ctx, &api.LoginRequest{Login: user, Password: pass})
			if err != nil {
				return err
			}
			s := session{AccessToken: resp.AccessToken, ExpiresAt: resp.ExpiresAt, Principal: resp.Principal}
			if err := saveSession(s); err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, resp.Principal)
			return err
		},
	}
	credentialFlags(cmd)
	return cmd
}

// atFlag adds --at, defaulting to the current Unix time in seconds.
func atFlag(cmd *cobra.Command) {
	cmd.Flags().Int64("at", 0, "timestamp to record (default now, Unix seconds)")
}

func atValue(cmd *cobra.Command) int64 {
	at, _ := cmd.Flags().GetInt64("at")
	if !cmd.Flags().Changed("at") {
		at = time.Now().Unix()
	}
	return at
}

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "account", Short: "Register or look up accounts"}

	register := &cobra.Command{
		Use:   "register <name>",
		Short: "Register the logged-in principal under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, closeFn, err := a.dial(true)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			_, err = cli.RegisterAccount(ctx, &api.RegisterAccountRequest{Name: args[0], At: atValue(cmd)})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, "ok")
			return err
		},
	}
	atFlag(register)

	show := &cobra.Command{
		Use:   "show [principal]",
		Short: "Show whether a principal (default: you) registered an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			req := &api.AccountExistsRequest{}
			if len(args) == 1 {
				req.Principal = args[0]
			}
			cli, closeFn, err := a.dial(len(args) == 0)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			resp, err := cli.AccountExists(ctx, req)
			if err != nil {
				return err
			}
			return a.printJSON(resp)
		},
	}

	cmd.AddCommand(register, show)
	return cmd
}

func newTypeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "type", Short: "Manage property types"}
	register := &cobra.Command{
		Use:   "register <type-id> <schema-addr>",
		Short: "Register a property type with you as its authority",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cli, closeFn, err := a.dial(true)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			_, err = cli.RegisterPropertyType(ctx, &api.RegisterPropertyTypeRequest{TypeID: args[0], SchemaAddr: args[1]})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, "ok")
			return err
		},
	}
	cmd.AddCommand(register)
	return cmd
}

// docAddr returns the address given as argument, or the CID of --doc-file.
func docAddr(cmd *cobra.Command, flag string, given string) (string, error) {
	file, _ := cmd.Flags().GetString(flag)
	switch {
	case file != "" && given != "":
		return "", fmt.Errorf("give either an address or --%s", flag)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		addr, err := cidutil.ForDocument(b)
		return string(addr), err
	case given == "":
		return "", errors.New("missing document address")
	}
	return given, nil
}

func newClaimCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim <type-id> <property-id> [doc-addr]",
		Short: "Register a property claim",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var given string
			if len(args) == 3 {
				given = args[2]
			}
			addr, err := docAddr(cmd, "doc-file", given)
			if err != nil {
				return err
			}
			cli, closeFn, err := a.dial(true)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			_, err = cli.RegisterClaim(ctx, &api.RegisterClaimRequest{TypeID: args[0], PropertyID: args[1], ClaimDocAddr: addr})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, addr)
			return err
		},
	}
	cmd.Flags().String("doc-file", "", "compute the claim document address from this file")
	return cmd
}

func newClaimsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "claims <type-id>",
		Short: "List properties registered under a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cli, closeFn, err := a.dial(false)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			resp, err := cli.PropertyClaims(ctx, &api.PropertyClaimsRequest{TypeID: args[0]})
			if err != nil {
				return err
			}
			return a.printJSON(resp.PropertyIDs)
		},
	}
}

func newPropertyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property <property-id>",
		Short: "Show a property record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, closeFn, err := a.dial(false)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			resp, err := cli.PropertyDetail(ctx, &api.PropertyDetailRequest{PropertyID: args[0]})
			if err != nil {
				return err
			}
			if text, _ := cmd.Flags().GetBool("text"); text {
				return writeProperty(a.out, convert.FromAPIProperty(resp.Property))
			}
			return a.printJSON(resp.Property)
		},
	}
	cmd.Flags().Bool("text", false, "print a human-readable summary instead of JSON")
	return cmd
}

// writeProperty prints p one field per line; unknown ids print "not found".
func writeProperty(w io.Writer, p model.Property) error {
	if p.ID == "" {
		_, err := fmt.Fprintln(w, "not found")
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "id:       %s\n", p.ID)
	fmt.Fprintf(&b, "type:     %s\n", p.TypeID)
	fmt.Fprintf(&b, "claimer:  %s\n", p.Claimer)
	fmt.Fprintf(&b, "document: %s\n", p.ClaimDocAddr)
	if p.Origin != "" {
		fmt.Fprintf(&b, "origin:   %s\n", p.Origin)
	}
	if p.Superseded() {
		fmt.Fprintf(&b, "status:   superseded by %s\n", strings.Join(convert.ToAPIIDs(p.SupersededBy), ", "))
	} else {
		b.WriteString("status:   active\n")
	}
	if p.Assertion != nil {
		fmt.Fprintf(&b, "signed:   %s at %d\n", p.Assertion.Attester, p.Assertion.At)
	}
	for i, e := range p.History {
		fmt.Fprintf(&b, "transfer %d: %s at %d\n", i+1, e.Principal, e.At)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newTransferCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <property-id>",
		Short: "Transfer a property you own, reissuing it under two new ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			to, _ := f.GetString("to")
			senderID, _ := f.GetString("sender-id")
			recipientID, _ := f.GetString("recipient-id")
			senderDoc, _ := f.GetString("sender-doc")
			recipientDoc, _ := f.GetString("recipient-doc")
			senderDoc, err := docAddr(cmd, "sender-doc-file", senderDoc)
			if err != nil {
				return err
			}
			recipientDoc, err = docAddr(cmd, "recipient-doc-file", recipientDoc)
			if err != nil {
				return err
			}

			cli, closeFn, err := a.dial(true)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			_, err = cli.TransferProperty(ctx, &api.TransferPropertyRequest{
				PropertyID:            args[0],
				Recipient:             to,
				SenderClaimDocAddr:    senderDoc,
				SenderPropertyID:      senderID,
				RecipientClaimDocAddr: recipientDoc,
				RecipientPropertyID:   recipientID,
				At:                    atValue(cmd),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, "ok")
			return err
		},
	}
	f := cmd.Flags()
	f.String("to", "", "recipient principal")
	f.String("sender-id", "", "property id of the record you keep")
	f.String("recipient-id", "", "property id of the recipient's record")
	f.String("sender-doc", "", "claim document address of your record")
	f.String("recipient-doc", "", "claim document address of the recipient's record")
	f.String("sender-doc-file", "", "compute --sender-doc from this file")
	f.String("recipient-doc-file", "", "compute --recipient-doc from this file")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("sender-id")
	_ = cmd.MarkFlagRequired("recipient-id")
	atFlag(cmd)
	return cmd
}

func newSignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <property-id> <type-id>",
		Short: "Attest a property as the authority of its type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, closeFn, err := a.dial(true)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			_, err = cli.SignDocument(ctx, &api.SignDocumentRequest{PropertyID: args[0], TypeID: args[1], At: atValue(cmd)})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, "ok")
			return err
		},
	}
	atFlag(cmd)
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <property-id>",
		Short: "Show the latest attestation and transfer history",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cli, closeFn, err := a.dial(false)
			if err != nil {
				return err
			}
			defer closeFn()
			ctx, cancel := a.context()
			defer cancel()

			resp, err := cli.AttestationStatus(ctx, &api.AttestationStatusRequest{PropertyID: args[0]})
			if err != nil {
				return err
			}
			return a.printJSON(resp)
		},
	}
}

func newCIDCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cid <file>",
		Short: "Print the content address (CIDv1, raw, sha2-256) of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			addr, err := cidutil.ForDocument(b)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, addr)
			return err
		},
	}
}
