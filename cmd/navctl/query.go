package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/routestate/pkg/query"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Parse, encode and merge query strings",
	}

	cmd.AddCommand(queryParseCmd(), queryStringifyCmd(), queryMergeCmd())
	return cmd
}

func queryParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "parse <search>",
		Short:   "Print a search string as JSON",
		Example: `  navctl query parse '?tab=posts&page=2'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(query.Parse(args[0]))
		},
	}
}

func queryStringifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stringify <key=value>...",
		Short:   "Encode key=value pairs as a search string",
		Example: `  navctl query stringify tab=posts 'q=a b'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := make(map[string]string, len(args))
			for _, arg := range args {
				k, v, _ := strings.Cut(arg, "=")
				m[k] = v
			}
			fmt.Fprintln(cmd.OutOrStdout(), query.Stringify(m))
			return nil
		},
	}
}

func queryMergeCmd() *cobra.Command {
	var (
		set []string
		del []string
	)

	cmd := &cobra.Command{
		Use:   "merge <search>",
		Short: "Apply a patch to a search string",
		Long: `Apply a patch to a search string the way navigateQuery does:
--set adds or replaces a key, --del removes one, and every other key
is kept.`,
		Example: `  navctl query merge '?tab=posts&page=2' --set page=3 --del tab`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := make(query.Patch, len(set)+len(del))
			for _, kv := range set {
				k, v, _ := strings.Cut(kv, "=")
				patch[k] = query.Value(v)
			}
			for _, k := range del {
				patch[k] = nil
			}
			merged := query.Merge(query.Parse(args[0]), patch)
			fmt.Fprintln(cmd.OutOrStdout(), query.Stringify(merged))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&set, "set", nil, "Set key=value")
	cmd.Flags().StringArrayVar(&del, "del", nil, "Remove key")

	return cmd
}
