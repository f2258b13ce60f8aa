package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/snippetshare/internal/cli/output"
)

func newCommentCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Inspect and delete comments",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <snippet-id>",
			Short: "List the comments on a snippet, oldest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				comments, err := a.comments.ListBySnippet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return output.JSON(a.out, nonNil(comments))
				}
				printComments(a, comments)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a single comment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.comments.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				if a.jsonOutput {
					return output.JSON(a.out, map[string]string{"deleted": args[0]})
				}
				output.Success(a.out, "Deleted comment %s", args[0])
				return nil
			},
		},
	)
	return cmd
}
