package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lzy/jshow/config"
	"github.com/lzy/jshow/observe"
	"github.com/lzy/jshow/token"
)

var shownKeys = []string{
	config.KeyTokenSign,
	token.KeyIssuer,
	token.KeyAudience,
	token.KeyTTL,
	token.KeyLeeway,
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print where each key was resolved from; secrets are redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, cmd, opts, func(a *app) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tSOURCE\tVALUE")
				for _, key := range shownKeys {
					r, found, err := a.loader.Lookup(ctx, key)
					if err != nil {
						return err
					}
					if !found {
						fmt.Fprintf(tw, "%s\t-\t<unset>\n", key)
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", key, r.Source, displayValue(key, r.Value))
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

func displayValue(key, value string) string {
	if observe.IsRedactedField(key) {
		return fmt.Sprintf("[REDACTED] (%d chars)", len(value))
	}
	if value == "" {
		return `""`
	}
	return value
}
