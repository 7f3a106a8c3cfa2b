package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"abricot/internal/model"
	"abricot/internal/viewmodel"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printTasks(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "  (aucune tâche)")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITRE\tSTATUT\tPRIORITÉ\tÉCHÉANCE\tPROJET\tASSIGNÉS")
	for _, t := range tasks {
		project := "Projet inconnu"
		if t.Project != nil {
			project = t.Project.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, viewmodel.StatusLabel(t.Status), t.Priority, formatDate(t.DueDate), project, assignees(t.Assignees))
	}
	tw.Flush()
}

func printBoard(w io.Writer, b viewmodel.Board) {
	columns := []struct {
		status model.Status
		tasks  []model.Task
	}{
		{model.StatusTodo, b.Todo},
		{model.StatusInProgress, b.InProgress},
		{model.StatusDone, b.Done},
	}
	for _, col := range columns {
		fmt.Fprintf(w, "%s (%d)\n", viewmodel.StatusLabel(col.status), len(col.tasks))
		printTasks(w, col.tasks)
		fmt.Fprintln(w)
	}
}

func printProject(w io.Writer, p model.Project, me model.ID) {
	fmt.Fprintf(w, "%s  [%s]\n", p.Name, p.ID)
	if p.Description != nil && *p.Description != "" {
		fmt.Fprintf(w, "%s\n", *p.Description)
	}
	fmt.Fprintf(w, "Progression: %d%% (%d/%d)\n", viewmodel.Progress(p), p.CompletedTaskCount, p.TaskCount)
	if role := p.MemberRole(me); role != "" {
		fmt.Fprintf(w, "Votre rôle: %s\n", role)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "\nMEMBRE\tEMAIL\tRÔLE")
	if p.Owner != nil {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", viewmodel.Initials(p.Owner.DisplayName()), p.Owner.DisplayName(), p.Owner.Email, "OWNER")
	}
	for _, m := range p.Members {
		if p.Owner != nil && m.User.ID == p.Owner.ID {
			continue
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", viewmodel.Initials(m.User.DisplayName()), m.User.DisplayName(), m.User.Email, m.Role)
	}
	tw.Flush()
}

func assignees(users []model.User) string {
	if len(users) == 0 {
		return "-"
	}
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.DisplayName()
	}
	return strings.Join(names, ", ")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02/01/2006")
}

// parseDate reads the --due flag.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, ok := model.ParseTime(s)
	if !ok {
		return nil, fmt.Errorf("date invalide %q (attendu AAAA-MM-JJ)", s)
	}
	return &t, nil
}

func ids(raw []string) []model.ID {
	out := make([]model.ID, 0, len(raw))
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, model.ID(part))
			}
		}
	}
	return out
}
