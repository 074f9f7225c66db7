package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/routestate/internal/config"
	"github.com/vango-dev/routestate/pkg/router"
)

// matchResult is one resolved target.
type matchResult struct {
	Target  string            `json:"target"`
	Matched bool              `json:"matched"`
	View    string            `json:"view,omitempty"`
	Path    string            `json:"path,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func matchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <path>...",
		Short: "Resolve paths against the route table",
		Long: `Resolve each path the way the router would and print the view,
canonical path, parameters and query it commits.

Examples:
  navctl match /users/42?tab=posts
  navctl match -f routes.json --json /about /missing`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRoutes(cmd)
			if err != nil {
				return err
			}
			results, err := resolve(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}
			return printMatches(cmd.OutOrStdout(), results, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

// resolve navigates a fresh router to each target.
func resolve(ctx context.Context, cfg *config.Config, targets []string) ([]matchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]matchResult, 0, len(targets))
	for _, target := range targets {
		r, err := router.New(cfg.RouterConfig())
		if err != nil {
			return nil, err
		}

		res := matchResult{Target: target}
		if err := r.Navigate(ctx, target); err != nil {
			res.Error = err.Error()
		} else if st := r.State(); st.View != "" {
			res.Matched = true
			res.View = st.View
			res.Path = st.Path
			res.Params = st.Params
			res.Query = st.Query
		}
		results = append(results, res)
	}
	return results, nil
}

func printMatches(w io.Writer, results []matchResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, res := range results {
		fmt.Fprintln(w, res.Target)
		switch {
		case res.Error != "":
			info(w, "error:  %s", res.Error)
		case !res.Matched:
			info(w, "no match")
		default:
			info(w, "view:   %s", res.View)
			info(w, "path:   %s", res.Path)
			info(w, "params: %s", formatPairs(res.Params))
			info(w, "query:  %s", formatPairs(res.Query))
		}
	}
	return nil
}

func formatPairs(m map[string]string) string {
	if len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + m[k]
	}
	return strings.Join(pairs, " ")
}
