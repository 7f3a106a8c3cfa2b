package cli

import (
	"fmt"
	"strings"

	"abricot/internal/kanban"
	"abricot/internal/model"
	"abricot/internal/viewmodel"

	"github.com/spf13/cobra"
)

var (
	taskTitle       string
	taskDescription string
	taskStatus      string
	taskPriority    string
	taskDue         string
	taskAssignees   []string
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Manage the tasks of a project",
}

var tasksListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's tasks, most pressing first",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksList,
}

var tasksCreateCmd = &cobra.Command{
	Use:     "create <project-id>",
	Short:   "Create a task",
	Args:    cobra.ExactArgs(1),
	Example: `  abricot tasks create 12 --title "Maquettes" --priority HIGH --due 2026-11-02 --assignee 3`,
	RunE:    runTasksCreate,
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update <project-id> <task-id>",
	Short: "Edit a task; only the flags given are sent",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksUpdate,
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move <project-id> <task-id> <TODO|IN_PROGRESS|DONE>",
	Short: "Move a task to another board column",
	Args:  cobra.ExactArgs(3),
	RunE:  runTasksMove,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <project-id> <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksDelete,
}

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksCreateCmd, tasksUpdateCmd, tasksMoveCmd, tasksDeleteCmd)

	for _, c := range []*cobra.Command{tasksCreateCmd, tasksUpdateCmd} {
		c.Flags().StringVar(&taskTitle, "title", "", "Title")
		c.Flags().StringVar(&taskDescription, "description", "", "Description")
		c.Flags().StringVar(&taskStatus, "status", "", "TODO, IN_PROGRESS, DONE or CANCELLED")
		c.Flags().StringVar(&taskPriority, "priority", "", "LOW, MEDIUM, HIGH or URGENT")
		c.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
		c.Flags().StringSliceVar(&taskAssignees, "assignee", nil, "Assignee user id (repeatable)")
	}
}

func runTasksList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	res := rt.Service.ProjectTasks(ctx, model.ID(args[0]))
	if res.Err != nil {
		return res.Err
	}
	printTasks(cmd.OutOrStdout(), viewmodel.SortByPriority(res.Data))
	return nil
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	due, err := parseDate(taskDue)
	if err != nil {
		return err
	}
	input := model.TaskInput{
		Title:       taskTitle,
		Status:      model.Status(strings.ToUpper(taskStatus)),
		Priority:    model.Priority(strings.ToUpper(taskPriority)),
		DueDate:     due,
		AssigneeIDs: ids(taskAssignees),
	}
	if taskDescription != "" {
		input.Description = &taskDescription
	}
	task, err := rt.Service.CreateTask(ctx, model.ID(args[0]), input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tâche créée: %s [%s]\n", task.Title, task.ID)
	return nil
}

func runTasksUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	flags := cmd.Flags()
	var update model.TaskUpdate
	if flags.Changed("title") {
		update.Title = &taskTitle
	}
	if flags.Changed("description") {
		update.Description = &taskDescription
	}
	if flags.Changed("status") {
		s := model.Status(strings.ToUpper(taskStatus))
		update.Status = &s
	}
	if flags.Changed("priority") {
		p := model.Priority(strings.ToUpper(taskPriority))
		update.Priority = &p
	}
	if flags.Changed("due") {
		due, err := parseDate(taskDue)
		if err != nil {
			return err
		}
		update.DueDate = due
	}
	if flags.Changed("assignee") {
		a := ids(taskAssignees)
		update.AssigneeIDs = &a
	}

	task, err := rt.Service.UpdateTask(ctx, model.ID(args[0]), model.ID(args[1]), update)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tâche mise à jour: %s (%s)\n", task.Title, viewmodel.StatusLabel(task.Status))
	return nil
}

// runTasksMove replays a drag from the task's current slot to the top of
// the target column.
func runTasksMove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	projectID, taskID := model.ID(args[0]), model.ID(args[1])
	target := kanban.Column(strings.ToUpper(args[2]))
	if !target.Valid() {
		return fmt.Errorf("colonne inconnue %q", args[2])
	}

	res := rt.Service.ProjectTasks(ctx, projectID)
	if res.Err != nil {
		return res.Err
	}
	board := viewmodel.BucketByStatus(viewmodel.SortByPriority(res.Data))
	source, found := locate(board, taskID)
	if !found {
		return fmt.Errorf("tâche %s introuvable dans le projet %s", taskID, projectID)
	}

	outcome, err := rt.Service.MoveTask(ctx, res.Data, kanban.DragEvent{
		TaskID:      taskID,
		Source:      source,
		Destination: &kanban.Location{Column: target, Index: 0},
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch outcome {
	case kanban.OutcomeStatusChanged:
		fmt.Fprintf(out, "Tâche déplacée vers %s\n", viewmodel.StatusLabel(target.Status()))
	default:
		fmt.Fprintf(out, "Aucun changement (%s)\n", outcome)
	}
	return nil
}

func locate(board viewmodel.Board, id model.ID) (kanban.Location, bool) {
	for _, col := range kanban.Columns {
		for i, t := range board.Column(col.Status()) {
			if t.ID == id {
				return kanban.Location{Column: col, Index: i}, true
			}
		}
	}
	return kanban.Location{}, false
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	if err := rt.Service.DeleteTask(ctx, model.ID(args[0]), model.ID(args[1])); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Tâche supprimée")
	return nil
}
