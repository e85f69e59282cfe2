package vultr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/imamik/quantserver/pkg/cloud"
)

// ListInstances returns every instance in the account, following cursors.
func (c *Client) ListInstances(ctx context.Context) ([]cloud.Instance, error) {
	var out []cloud.Instance
	cursor := ""
	for {
		var page instanceListResponse
		if err := c.Do(ctx, http.MethodGet, listPath("/instances", cursor), nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list instances: %w", err)
		}
		for _, inst := range page.Instances {
			out = append(out, inst.toCloud())
		}
		cursor = page.Meta.Links.Next
		if cursor == "" {
			return out, nil
		}
	}
}

// GetInstance returns one instance by id.
func (c *Client) GetInstance(ctx context.Context, id string) (*cloud.Instance, error) {
	var resp instanceResponse
	if err := c.Do(ctx, http.MethodGet, "/instances/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get instance %s: %w", id, err)
	}
	inst := resp.Instance.toCloud()
	return &inst, nil
}

// CreateInstance boots a new instance from a snapshot. The request is sent once.
func (c *Client) CreateInstance(ctx context.Context, opts cloud.InstanceCreateOpts) (*cloud.Instance, error) {
	backups := "disabled"
	if opts.Backups {
		backups = "enabled"
	}
	req := createInstanceRequest{
		Region:     opts.Region,
		Plan:       opts.Plan,
		SnapshotID: opts.SnapshotID,
		Label:      opts.Label,
		Backups:    backups,
		UserData:   opts.UserData,
	}

	var resp instanceResponse
	if err := c.Do(ctx, http.MethodPost, "/instances", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}
	if resp.Instance.ID == "" {
		return nil, fmt.Errorf("failed to create instance: response has no instance id")
	}
	inst := resp.Instance.toCloud()
	return &inst, nil
}

// DeleteInstance destroys an instance. It does not wait for removal.
func (c *Client) DeleteInstance(ctx context.Context, id string) error {
	if err := c.Do(ctx, http.MethodDelete, "/instances/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete instance %s: %w", id, err)
	}
	return nil
}

func listPath(base, cursor string) string {
	q := url.Values{}
	q.Set("per_page", fmt.Sprintf("%d", pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return base + "?" + q.Encode()
}
