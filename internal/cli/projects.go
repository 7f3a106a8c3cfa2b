package cli

import (
	"fmt"

	"abricot/internal/model"
	"abricot/internal/viewmodel"

	"github.com/spf13/cobra"
)

var (
	projectName         string
	projectDescription  string
	projectContributors []string
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "List and manage projects",
	RunE:    runProjectsList,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your projects, most urgent first",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project, its members and its board",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsShow,
}

var projectsCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a project",
	Example: `  abricot projects create --name "Site vitrine" --contributor bob@example.com`,
	RunE:    runProjectsCreate,
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Rename a project or change its description",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsUpdate,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsCreateCmd, projectsUpdateCmd, projectsDeleteCmd)

	projectsCreateCmd.Flags().StringVar(&projectName, "name", "", "Project name")
	projectsCreateCmd.Flags().StringVar(&projectDescription, "description", "", "Description")
	projectsCreateCmd.Flags().StringSliceVar(&projectContributors, "contributor", nil, "Contributor email (repeatable)")

	projectsUpdateCmd.Flags().StringVar(&projectName, "name", "", "New name")
	projectsUpdateCmd.Flags().StringVar(&projectDescription, "description", "", "New description")
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	res := rt.Service.Projects(ctx)
	if res.Err != nil {
		return res.Err
	}

	out := cmd.OutOrStdout()
	if len(res.Data) == 0 {
		fmt.Fprintln(out, "Aucun projet")
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNOM\tPROGRESSION\tTÂCHES\tMEMBRES\t")
	for _, u := range viewmodel.RankProjects(res.Data) {
		p := u.Project
		flag := ""
		if u.Prioritaire {
			flag = "Prioritaire"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%d/%d\t%d\t%s\n",
			p.ID, p.Name, viewmodel.Progress(p), p.CompletedTaskCount, p.TaskCount, len(p.Members), flag)
	}
	return tw.Flush()
}

func runProjectsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	id := model.ID(args[0])
	res := rt.Service.Project(ctx, id)
	if res.Err != nil {
		return res.Err
	}
	if res.Data == nil {
		return fmt.Errorf("projet %s introuvable", id)
	}
	board, err := rt.Service.Board(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	me, _ := rt.Session.RequireUser()
	printProject(out, *res.Data, me.ID)
	fmt.Fprintln(out)
	printBoard(out, board)
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	input := model.ProjectInput{Name: projectName, Contributors: projectContributors}
	if projectDescription != "" {
		input.Description = &projectDescription
	}
	p, err := rt.Service.CreateProject(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Projet créé: %s [%s]\n", p.Name, p.ID)
	return nil
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	var update model.ProjectUpdate
	if cmd.Flags().Changed("name") {
		update.Name = &projectName
	}
	if cmd.Flags().Changed("description") {
		update.Description = &projectDescription
	}
	p, err := rt.Service.UpdateProject(ctx, model.ID(args[0]), update)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Projet mis à jour: %s\n", p.Name)
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	if err := rt.Service.DeleteProject(ctx, model.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Projet supprimé")
	return nil
}
