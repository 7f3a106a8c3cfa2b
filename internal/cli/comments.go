package cli

import (
	"fmt"
	"strings"

	"abricot/internal/model"

	"github.com/spf13/cobra"
)

var commentsCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"comment"},
	Short:   "Read and write task comments",
}

var commentsListCmd = &cobra.Command{
	Use:   "list <project-id> <task-id>",
	Short: "List the comments of a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runCommentsList,
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <project-id> <task-id> <text...>",
	Short: "Comment on a task",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runCommentsAdd,
}

func init() {
	commentsCmd.AddCommand(commentsListCmd, commentsAddCmd)
}

func runCommentsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	res := rt.Service.TaskComments(ctx, model.ID(args[0]), model.ID(args[1]))
	if res.Err != nil {
		return res.Err
	}
	out := cmd.OutOrStdout()
	if len(res.Data) == 0 {
		fmt.Fprintln(out, "Aucun commentaire")
		return nil
	}
	for _, c := range res.Data {
		fmt.Fprintf(out, "%s  %s\n  %s\n", c.Author.DisplayName(), c.CreatedAt.Format("02/01/2006 15:04"), c.Content)
	}
	return nil
}

func runCommentsAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	input := model.CommentInput{Content: strings.Join(args[2:], " ")}
	if _, err := rt.Service.AddComment(ctx, model.ID(args[0]), model.ID(args[1]), input); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Commentaire ajouté")
	return nil
}
