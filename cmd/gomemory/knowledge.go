package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/gomemory-mcp/internal/searcher"
	"github.com/dshills/gomemory-mcp/internal/storage"
	"github.com/dshills/gomemory-mcp/pkg/types"
)

func newSaveCmd(a *app) *cobra.Command {
	var (
		tags        []string
		scope       string
		projectPath string
	)

	cmd := &cobra.Command{
		Use:   "save <title> <content>",
		Short: "Save a knowledge item",
		Example: `  gomemory save "Naming" "Use camelCase for variables" --tags style,go
  gomemory save "Build" "make all" --scope project --project /src/app`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.repo.Save(cmd.Context(), types.NewItem{
				Title:       args[0],
				Content:     args[1],
				Tags:        tags,
				Scope:       types.Scope(scope),
				ProjectPath: projectPath,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", item.ID, item.Title)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Comma separated tags")
	cmd.Flags().StringVarP(&scope, "scope", "s", string(types.ScopeGlobal), "global or project")
	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Project path (required for project scope)")

	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		tags        []string
		scope       string
		projectPath string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search saved knowledge",
		Example: `  gomemory search "error handling"
  gomemory search cache --tags perf --scope project --project /src/app --limit 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopeFilter, err := types.ParseScopeFilter(scope)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}

			req := searcher.Request{
				Query:       args[0],
				Tags:        tags,
				Scope:       scopeFilter,
				ProjectPath: projectPath,
			}
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}

			resp, err := a.searcher().Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), resp.Results)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Only items with at least one of these tags")
	cmd.Flags().StringVarP(&scope, "scope", "s", string(types.ScopeFilterAll), "all, global or project")
	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "With --scope project, only this project path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default from config)")

	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a knowledge item in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.repo.LoadFull(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("knowledge item %q not found", args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", item.ID)
			fmt.Fprintf(out, "Title:   %s\n", item.Title)
			fmt.Fprintf(out, "Scope:   %s\n", describeScope(item.Scope, item.ProjectPath))
			fmt.Fprintf(out, "Tags:    %s\n", strings.Join(item.Tags, ", "))
			fmt.Fprintf(out, "Created: %s\n\n", item.CreatedAt.Format(time.RFC3339))
			fmt.Fprintln(out, item.Content)
			return nil
		},
	}
}

func printResults(out io.Writer, results []types.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}
	for _, r := range results {
		fmt.Fprintf(out, "#%d  %s  (score %d, %s)\n", r.Rank, r.Item.Title, r.Score, describeScope(r.Item.Scope, r.Item.ProjectPath))
		fmt.Fprintf(out, "    id: %s\n", r.Item.ID)
		if len(r.Item.Tags) > 0 {
			fmt.Fprintf(out, "    tags: %s\n", strings.Join(r.Item.Tags, ", "))
		}
		fmt.Fprintf(out, "    %s\n\n", strings.ReplaceAll(r.Preview, "\n", "\n    "))
	}
}

func describeScope(scope types.Scope, projectPath string) string {
	if scope == types.ScopeProject {
		return fmt.Sprintf("project %s", projectPath)
	}
	return string(scope)
}
