package api

import (
	"context"
	"net/http"

	"abricot/internal/model"
)

func (c *Client) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var out model.DashboardStats
	if err := c.do(ctx, "dashboard_stats", http.MethodGet, "/dashboard/stats", nil, "stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAssignedTasks(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	if err := c.do(ctx, "assigned_tasks", http.MethodGet, "/dashboard/assigned-tasks", nil, "tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}
