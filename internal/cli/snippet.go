package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/snippetshare/internal/cli/output"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

func newSnippetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippet",
		Short: "Inspect and delete snippets",
	}
	cmd.AddCommand(
		newSnippetListCommand(a),
		newSnippetShowCommand(a),
		newSnippetDeleteCommand(a),
	)
	return cmd
}

func newSnippetListCommand(a *app) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snippets, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snippets, err := a.snippets.List(cmd.Context(), repository.ListOptions{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return output.JSON(a.out, nonNil(snippets))
			}

			rows := make([][]string, 0, len(snippets))
			for _, s := range snippets {
				rows = append(rows, []string{s.ID, s.Title, s.CreatedByUsername, s.CreatedAt.Format(timeLayout)})
			}
			output.Table(a.out, []string{"ID", "TITLE", "OWNER", "CREATED"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of snippets (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of snippets to skip")
	return cmd
}

// snippetView is the --json shape of "snippet show".
type snippetView struct {
	Snippet  *model.Snippet  `json:"snippet"`
	Comments []model.Comment `json:"comments"`
}

func newSnippetShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a snippet with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := a.snippets.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return output.JSON(a.out, snippetView{Snippet: detail.Snippet, Comments: nonNil(detail.Comments)})
			}

			s := detail.Snippet
			output.Section(a.out, s.Title)
			output.Field(a.out, "id", s.ID)
			output.Field(a.out, "owner", s.CreatedByUsername)
			output.Field(a.out, "created", s.CreatedAt.Format(timeLayout))
			output.Field(a.out, "updated", s.UpdatedAt.Format(timeLayout))

			output.Section(a.out, "Code")
			a.printBlock(s.Code)
			output.Section(a.out, "Description")
			a.printBlock(s.Description)

			output.Section(a.out, "Comments")
			printComments(a, detail.Comments)
			return nil
		},
	}
}

func newSnippetDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snippet and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.snippets.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if a.jsonOutput {
				return output.JSON(a.out, map[string]string{"deleted": args[0]})
			}
			output.Success(a.out, "Deleted snippet %s", args[0])
			return nil
		},
	}
}

func (a *app) printBlock(text string) {
	if text == "" {
		output.Muted(a.out, "(empty)")
		return
	}
	fmt.Fprintln(a.out, text)
}

func printComments(a *app, comments []model.Comment) {
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, []string{c.ID, c.CommentedByUsername, c.CommentedAt.Format(timeLayout), firstLine(c.Text, 60)})
	}
	output.Table(a.out, []string{"ID", "AUTHOR", "AT", "TEXT"}, rows)
}

// firstLine shortens text to its first line and at most n runes.
func firstLine(text string, n int) string {
	for i, r := range text {
		if r == '\n' {
			text = text[:i]
			break
		}
	}
	runes := []rune(text)
	if len(runes) > n {
		return string(runes[:n-1]) + "…"
	}
	return text
}
