package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/quantserver/internal/util/labels"
	"github.com/imamik/quantserver/pkg/cloud"
)

const bytesPerGB = 1 << 30

// ListSnapshots returns every snapshot image in the project.
func (p *Provider) ListSnapshots(ctx context.Context) ([]cloud.Snapshot, error) {
	var images []*hcloud.Image
	err := p.call(ctx, "image.list", true, func(ctx context.Context) (*hcloud.Response, error) {
		var err error
		images, err = p.client.Image.AllWithOpts(ctx, hcloud.ImageListOpts{
			Type: []hcloud.ImageType{hcloud.ImageTypeSnapshot},
		})
		return nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	out := make([]cloud.Snapshot, 0, len(images))
	for _, img := range images {
		out = append(out, toSnapshot(img))
	}
	return out, nil
}

// GetSnapshot returns one snapshot image by id.
func (p *Provider) GetSnapshot(ctx context.Context, id string) (*cloud.Snapshot, error) {
	imageID, err := parseID("image", id)
	if err != nil {
		return nil, err
	}

	var image *hcloud.Image
	err = p.call(ctx, "image.get", true, func(ctx context.Context) (*hcloud.Response, error) {
		var resp *hcloud.Response
		var err error
		image, resp, err = p.client.Image.GetByID(ctx, imageID)
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get image %s: %w", id, err)
	}
	if image == nil {
		return nil, notFound("image.get", "image", id)
	}
	snap := toSnapshot(image)
	return &snap, nil
}

// CreateSnapshot starts a snapshot of a server. It returns as soon as the
// image exists; completion is observed through GetSnapshot.
func (p *Provider) CreateSnapshot(ctx context.Context, instanceID, description string) (*cloud.Snapshot, error) {
	serverID, err := parseID("server", instanceID)
	if err != nil {
		return nil, err
	}

	// The server's label is not known here; backups are found by description.
	backupLabels := labels.NewLabelBuilder("").WithRole(labels.RoleBackup).Build()

	var result hcloud.ServerCreateImageResult
	err = p.call(ctx, "server.create_image", false, func(ctx context.Context) (*hcloud.Response, error) {
		var resp *hcloud.Response
		var err error
		result, resp, err = p.client.Server.CreateImage(ctx, &hcloud.Server{ID: serverID}, &hcloud.ServerCreateImageOpts{
			Type:        hcloud.ImageTypeSnapshot,
			Description: hcloud.Ptr(description),
			Labels:      backupLabels,
		})
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}
	if result.Image == nil {
		return nil, fmt.Errorf("failed to create snapshot: response has no image")
	}

	snap := toSnapshot(result.Image)
	snap.InstanceID = instanceID
	if snap.Description == "" {
		snap.Description = description
	}
	return &snap, nil
}

// DeleteSnapshot deletes a snapshot image.
func (p *Provider) DeleteSnapshot(ctx context.Context, id string) error {
	imageID, err := parseID("image", id)
	if err != nil {
		return err
	}

	err = p.call(ctx, "image.delete", true, func(ctx context.Context) (*hcloud.Response, error) {
		return p.client.Image.Delete(ctx, &hcloud.Image{ID: imageID})
	})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", id, err)
	}
	return nil
}

func toSnapshot(img *hcloud.Image) cloud.Snapshot {
	snap := cloud.Snapshot{
		ID:          formatID(img.ID),
		Description: img.Description,
		Status:      mapImageStatus(img.Status),
		Size:        int64(img.ImageSize * bytesPerGB),
	}
	if !img.Created.IsZero() {
		snap.CreatedAt = img.Created.UTC()
	}
	if img.CreatedFrom != nil {
		snap.InstanceID = formatID(img.CreatedFrom.ID)
	}
	return snap
}

func mapImageStatus(status hcloud.ImageStatus) string {
	switch status {
	case hcloud.ImageStatusCreating:
		return cloud.SnapshotPending
	case hcloud.ImageStatusAvailable:
		return cloud.SnapshotComplete
	default:
		return cloud.SnapshotError
	}
}
