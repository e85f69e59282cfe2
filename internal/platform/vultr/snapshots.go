package vultr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/imamik/quantserver/pkg/cloud"
)

// ListSnapshots returns every snapshot in the account, following cursors.
func (c *Client) ListSnapshots(ctx context.Context) ([]cloud.Snapshot, error) {
	var out []cloud.Snapshot
	cursor := ""
	for {
		var page snapshotListResponse
		if err := c.Do(ctx, http.MethodGet, listPath("/snapshots", cursor), nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}
		for _, snap := range page.Snapshots {
			out = append(out, snap.toCloud())
		}
		cursor = page.Meta.Links.Next
		if cursor == "" {
			return out, nil
		}
	}
}

// GetSnapshot returns one snapshot by id.
func (c *Client) GetSnapshot(ctx context.Context, id string) (*cloud.Snapshot, error) {
	var resp snapshotResponse
	if err := c.Do(ctx, http.MethodGet, "/snapshots/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, err)
	}
	snap := resp.Snapshot.toCloud()
	return &snap, nil
}

// CreateSnapshot queues a snapshot of an instance. The request is sent once.
func (c *Client) CreateSnapshot(ctx context.Context, instanceID, description string) (*cloud.Snapshot, error) {
	req := createSnapshotRequest{InstanceID: instanceID, Description: description}

	var resp snapshotResponse
	if err := c.Do(ctx, http.MethodPost, "/snapshots", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}
	if resp.Snapshot.ID == "" {
		return nil, fmt.Errorf("failed to create snapshot: response has no snapshot id")
	}
	snap := resp.Snapshot.toCloud()
	snap.InstanceID = instanceID
	if snap.Description == "" {
		snap.Description = description
	}
	return &snap, nil
}

// DeleteSnapshot removes a snapshot.
func (c *Client) DeleteSnapshot(ctx context.Context, id string) error {
	if err := c.Do(ctx, http.MethodDelete, "/snapshots/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return nil
}
