package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lzy/jshow/token"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign and verify tokens with tokenSign",
	}
	cmd.AddCommand(newTokenSignCmd(opts), newTokenVerifyCmd(opts))
	return cmd
}

func newTokenSignCmd(opts *globalOptions) *cobra.Command {
	var (
		subject string
		claims  []string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Issue a token for a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			extra, err := parseClaims(claims)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return withApp(ctx, cmd, opts, func(a *app) error {
				props, err := a.properties(ctx)
				if err != nil {
					return err
				}
				cfg, err := a.tokenConfig(ctx)
				if err != nil {
					return err
				}

				tok, err := token.NewSigner(props, cfg, token.WithMiddleware(a.mw)).Sign(ctx, subject, extra)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject (required)")
	cmd.Flags().StringArrayVar(&claims, "claim", nil, "extra claim as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newTokenVerifyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a token and print its claims as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, cmd, opts, func(a *app) error {
				props, err := a.properties(ctx)
				if err != nil {
					return err
				}
				cfg, err := a.tokenConfig(ctx)
				if err != nil {
					return err
				}

				claims, err := token.NewVerifier(props, cfg, token.WithMiddleware(a.mw)).Verify(ctx, args[0])
				if err != nil {
					return err
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(claims)
			})
		},
	}
}

func parseClaims(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --claim %q: want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
