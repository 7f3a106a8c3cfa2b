package api

import (
	"context"
	"net/http"
	"net/url"

	"abricot/internal/model"
)

func projectPath(id model.ID) string {
	return "/projects/" + url.PathEscape(id.String())
}

func (c *Client) GetProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	if err := c.do(ctx, "get_projects", http.MethodGet, "/projects", nil, "projects", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, id model.ID) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, "get_project", http.MethodGet, projectPath(id), nil, "project", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, input model.ProjectInput) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, "create_project", http.MethodPost, "/projects", input, "project", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, id model.ID, update model.ProjectUpdate) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, "update_project", http.MethodPut, projectPath(id), update, "project", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id model.ID) error {
	return c.do(ctx, "delete_project", http.MethodDelete, projectPath(id), nil, "", nil)
}

func (c *Client) AddContributor(ctx context.Context, projectID model.ID, input model.ContributorInput) error {
	return c.do(ctx, "add_contributor", http.MethodPost, projectPath(projectID)+"/contributors", input, "", nil)
}

func (c *Client) RemoveContributor(ctx context.Context, projectID, userID model.ID) error {
	path := projectPath(projectID) + "/contributors/" + url.PathEscape(userID.String())
	return c.do(ctx, "remove_contributor", http.MethodDelete, path, nil, "", nil)
}

func (c *Client) UpdateContributorRole(ctx context.Context, projectID, userID model.ID, role model.Role) error {
	path := projectPath(projectID) + "/contributors/" + url.PathEscape(userID.String())
	return c.do(ctx, "update_contributor_role", http.MethodPut, path, model.RoleUpdate{Role: role}, "", nil)
}
