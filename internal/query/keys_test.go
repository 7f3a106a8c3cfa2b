package query_test

import (
	"testing"

	"abricot/internal/model"
	"abricot/internal/query"

	"github.com/stretchr/testify/assert"
)

func TestKeyPrefix(t *testing.T) {
	tasks := query.ProjectTasks("p1")

	assert.True(t, tasks.HasPrefix(query.Projects()))
	assert.True(t, tasks.HasPrefix(query.Project("p1")))
	assert.False(t, tasks.HasPrefix(query.Project("p2")))
	assert.False(t, query.Projects().HasPrefix(tasks))
	assert.True(t, query.Project("p1").Equal(query.Project("p1")))
	assert.False(t, query.Project("p1").Equal(tasks))
}

func TestKeyStringEscapesSegments(t *testing.T) {
	assert.Equal(t, "projects:p1:tasks", query.ProjectTasks("p1").String())
	// A search term with separators or glob characters stays one segment.
	assert.Equal(t, "users:search:a%3Ab%2A", query.UserSearch("a:b*").String())
}

func TestDependents(t *testing.T) {
	target := query.Target{ProjectID: "p1", TaskID: "t1"}

	tests := []struct {
		kind query.MutationKind
		want []query.Key
	}{
		{query.CreateProject, []query.Key{query.Projects(), query.Project("p1")}},
		{query.DeleteProject, []query.Key{query.Projects(), query.Project("p1")}},
		{query.AddContributor, []query.Key{query.Project("p1")}},
		{query.UpdateContributorRole, []query.Key{query.Project("p1")}},
		{query.UpdateTask, []query.Key{
			query.ProjectTasks("p1"), query.Project("p1"), query.AssignedTasks(), query.DashboardStats(),
		}},
		{query.AddComment, []query.Key{
			query.TaskComments("t1"), query.ProjectTasks("p1"), query.AssignedTasks(),
		}},
		{query.UpdateProfile, []query.Key{query.UserProfile()}},
		{query.UpdatePassword, nil},
		{query.GenerateTasks, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, query.Dependents(tt.kind, target))
		})
	}
}

func TestDependentsCreateProjectWithoutID(t *testing.T) {
	got := query.Dependents(query.CreateProject, query.Target{ProjectID: model.ID("")})
	assert.Equal(t, []query.Key{query.Projects()}, got)
}
