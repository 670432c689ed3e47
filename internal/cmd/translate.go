package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/luispater/sl2browser/internal/keyword"
	"github.com/luispater/sl2browser/internal/locator"
)

func newTranslateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:     "translate LOCATOR...",
		Short:   "Print the engine selector of legacy locators",
		Example: "  sl2browser translate id:submit 'xpath=//a[@href]' css=.menu",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, raw := range args {
				selector := locator.RawLocatorToSelector(raw)
				if !verbose {
					fmt.Fprintln(out, selector)
					continue
				}
				_, isDefault := locator.DefaultFallback(selector)
				fmt.Fprintf(out, "%s\t%s\tdefault=%v\n", raw, selector, isDefault)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the locator and the default marker too")
	return cmd
}

func newKeywordsCmd() *cobra.Command {
	var implemented bool
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List the legacy keyword catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := make([]keyword.Entry, 0, len(keyword.Catalog))
			for _, entry := range keyword.Catalog {
				if implemented && !entry.Implemented {
					continue
				}
				entries = append(entries, entry)
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, entry := range entries {
				state := "implemented"
				if !entry.Implemented {
					state = "not implemented"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Name, state, strings.Join(entry.Args, ", "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&implemented, "implemented", false, "only list implemented keywords")
	return cmd
}
