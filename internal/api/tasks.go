package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"abricot/internal/model"
)

func taskPath(projectID, taskID model.ID) string {
	return projectPath(projectID) + "/tasks/" + url.PathEscape(taskID.String())
}

func (c *Client) GetProjectTasks(ctx context.Context, projectID model.ID) ([]model.Task, error) {
	var out []model.Task
	if err := c.do(ctx, "get_project_tasks", http.MethodGet, projectPath(projectID)+"/tasks", nil, "tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID model.ID, input model.TaskInput) (*model.Task, error) {
	var out model.Task
	if err := c.do(ctx, "create_task", http.MethodPost, projectPath(projectID)+"/tasks", input, "task", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, projectID, taskID model.ID, update model.TaskUpdate) (*model.Task, error) {
	var out model.Task
	if err := c.do(ctx, "update_task", http.MethodPut, taskPath(projectID, taskID), update, "task", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, projectID, taskID model.ID) error {
	return c.do(ctx, "delete_task", http.MethodDelete, taskPath(projectID, taskID), nil, "", nil)
}

func (c *Client) GetTaskComments(ctx context.Context, projectID, taskID model.ID) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.do(ctx, "get_task_comments", http.MethodGet, taskPath(projectID, taskID)+"/comments", nil, "comments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddComment(ctx context.Context, projectID, taskID model.ID, input model.CommentInput) (*model.Comment, error) {
	var out model.Comment
	if err := c.do(ctx, "add_comment", http.MethodPost, taskPath(projectID, taskID)+"/comments", input, "comment", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateTasks returns the AI candidates undecoded: their shape is defined
// by an external service and validated by the caller.
func (c *Client) GenerateTasks(ctx context.Context, projectID model.ID, prompt string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	input := model.GenerateTasksInput{Prompt: prompt}
	if err := c.do(ctx, "generate_tasks", http.MethodPost, projectPath(projectID)+"/tasks/generate", input, "tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}
