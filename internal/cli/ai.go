package cli

import (
	"fmt"
	"strings"

	"abricot/internal/model"
	"abricot/internal/viewmodel"

	"github.com/spf13/cobra"
)

var aiApply bool

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Draft tasks from a prompt",
}

var aiGenerateCmd = &cobra.Command{
	Use:     "generate <project-id> <prompt...>",
	Short:   "Ask the backend for task drafts, optionally creating them",
	Args:    cobra.MinimumNArgs(2),
	Example: `  abricot ai generate 12 "préparer le lancement du site" --apply`,
	RunE:    runAIGenerate,
}

func init() {
	aiCmd.AddCommand(aiGenerateCmd)
	aiGenerateCmd.Flags().BoolVar(&aiApply, "apply", false, "Create every accepted draft")
}

func runAIGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	projectID := model.ID(args[0])
	proposal, err := rt.Service.GenerateTasks(ctx, projectID, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := newTable(out)
	fmt.Fprintln(tw, "#\tTITRE\tSTATUT\tPRIORITÉ\tÉCHÉANCE\tASSIGNÉS")
	for i, d := range proposal.Drafts {
		in := d.Input
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			i+1, in.Title, viewmodel.StatusLabel(in.Status), in.Priority, formatDate(in.DueDate), len(in.AssigneeIDs))
	}
	tw.Flush()
	for _, d := range proposal.Drafts {
		if len(d.Unmatched) > 0 {
			fmt.Fprintf(out, "%q: assignés inconnus %s\n", d.Input.Title, strings.Join(d.Unmatched, ", "))
		}
	}
	for _, r := range proposal.Rejections {
		fmt.Fprintf(out, "Proposition %d ignorée: %s\n", r.Index+1, r.Reason)
	}

	if !aiApply || len(proposal.Drafts) == 0 {
		return nil
	}
	res, err := rt.Service.ApplyDrafts(ctx, projectID, proposal.Drafts)
	if res != nil {
		fmt.Fprintf(out, "%d tâche(s) créée(s)", len(res.Created))
		if len(res.Skipped) > 0 {
			fmt.Fprintf(out, ", %d déjà créée(s)", len(res.Skipped))
		}
		fmt.Fprintln(out)
	}
	return err
}
