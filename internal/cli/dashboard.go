package cli

import (
	"fmt"
	"time"

	"abricot/internal/model"
	"abricot/internal/viewmodel"

	"github.com/spf13/cobra"
)

var dashboardView string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the tasks assigned to you",
	Example: `  abricot dashboard
  abricot dashboard --view kanban`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardView, "view", "list", "Layout: list or kanban")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if dashboardView != "list" && dashboardView != "kanban" {
		return fmt.Errorf("vue inconnue %q (list ou kanban)", dashboardView)
	}
	if err := signedIn(ctx); err != nil {
		return err
	}

	assigned := rt.Service.AssignedTasks(ctx)
	if assigned.Err != nil {
		return assigned.Err
	}
	tasks := viewmodel.SortByPriority(assigned.Data)

	out := cmd.OutOrStdout()
	stats := rt.Service.DashboardStats(ctx)
	if stats.Err == nil && stats.Data != nil {
		printStats(cmd, stats.Data)
	} else {
		s := viewmodel.DashboardSummary(tasks, time.Now())
		fmt.Fprintf(out, "Tâches: %d  à faire: %d  en cours: %d  terminées: %d  en retard: %d\n\n",
			s.Total, s.Todo, s.InProgress, s.Done, s.Overdue)
	}

	if dashboardView == "kanban" {
		printBoard(out, viewmodel.BucketByStatus(tasks))
		return nil
	}
	printTasks(out, tasks)
	return nil
}

func printStats(cmd *cobra.Command, st *model.DashboardStats) {
	fmt.Fprintf(cmd.OutOrStdout(), "Projets: %d  Tâches: %d  urgentes: %d  en retard: %d\n\n",
		st.Projects.Total, st.Tasks.Total, st.Tasks.Urgent, st.Tasks.Overdue)
}
