package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/qgpep/internal/verify"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tN\tMETRICS\tSTEP\tDESCRIPTION")
			for _, m := range verify.Methods() {
				metrics := make([]string, len(m.Metrics))
				for i, mt := range m.Metrics {
					metrics[i] = string(mt)
				}
				step := "fixed"
				if m.TunableStep {
					step = "tunable"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", m.Name, m.DefaultN, strings.Join(metrics, ","), step, m.Description)
			}
			return w.Flush()
		},
	}
}
