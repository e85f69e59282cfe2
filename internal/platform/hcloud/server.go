package hcloud

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/quantserver/internal/util/labels"
	"github.com/imamik/quantserver/pkg/cloud"
)

// ListInstances returns every server in the project.
func (p *Provider) ListInstances(ctx context.Context) ([]cloud.Instance, error) {
	var servers []*hcloud.Server
	err := p.call(ctx, "server.list", true, func(ctx context.Context) (*hcloud.Response, error) {
		var err error
		servers, err = p.client.Server.All(ctx)
		return nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	out := make([]cloud.Instance, 0, len(servers))
	for _, s := range servers {
		out = append(out, toInstance(s))
	}
	return out, nil
}

// GetInstance returns one server by id.
func (p *Provider) GetInstance(ctx context.Context, id string) (*cloud.Instance, error) {
	serverID, err := parseID("server", id)
	if err != nil {
		return nil, err
	}

	var server *hcloud.Server
	err = p.call(ctx, "server.get", true, func(ctx context.Context) (*hcloud.Response, error) {
		var resp *hcloud.Response
		var err error
		server, resp, err = p.client.Server.GetByID(ctx, serverID)
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get server %s: %w", id, err)
	}
	if server == nil {
		return nil, notFound("server.get", "server", id)
	}
	inst := toInstance(server)
	return &inst, nil
}

// CreateInstance boots a server from a snapshot image. The request is sent once.
func (p *Provider) CreateInstance(ctx context.Context, opts cloud.InstanceCreateOpts) (*cloud.Instance, error) {
	imageID, err := parseID("image", opts.SnapshotID)
	if err != nil {
		return nil, err
	}
	userData, err := base64.StdEncoding.DecodeString(opts.UserData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user data: %w", err)
	}

	createOpts := hcloud.ServerCreateOpts{
		Name:       opts.Label,
		ServerType: &hcloud.ServerType{Name: opts.Plan},
		Image:      &hcloud.Image{ID: imageID},
		Location:   &hcloud.Location{Name: opts.Region},
		UserData:   string(userData),
		Labels:     labels.NewLabelBuilder(opts.Label).WithRole(labels.RoleServer).Build(),
	}

	var result hcloud.ServerCreateResult
	err = p.call(ctx, "server.create", false, func(ctx context.Context) (*hcloud.Response, error) {
		var resp *hcloud.Response
		var err error
		result, resp, err = p.client.Server.Create(ctx, createOpts)
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	if result.Server == nil {
		return nil, fmt.Errorf("failed to create server: response has no server")
	}

	if opts.Backups {
		p.log.Info("Warning: automatic backups are not enabled for hetzner servers", "server", result.Server.ID)
	}

	inst := toInstance(result.Server)
	return &inst, nil
}

// DeleteInstance deletes a server. It does not wait for the delete action.
func (p *Provider) DeleteInstance(ctx context.Context, id string) error {
	serverID, err := parseID("server", id)
	if err != nil {
		return err
	}

	err = p.call(ctx, "server.delete", true, func(ctx context.Context) (*hcloud.Response, error) {
		_, resp, err := p.client.Server.DeleteWithResult(ctx, &hcloud.Server{ID: serverID})
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("failed to delete server %s: %w", id, err)
	}
	return nil
}

func toInstance(s *hcloud.Server) cloud.Instance {
	inst := cloud.Instance{
		ID:    formatID(s.ID),
		Label: s.Name,
	}
	inst.Status, inst.PowerStatus = mapServerStatus(s.Status)
	if s.PublicNet.IPv4.IP != nil {
		inst.MainIP = s.PublicNet.IPv4.IP.String()
	}
	if s.ServerType != nil {
		inst.Plan = s.ServerType.Name
	}
	if s.Datacenter != nil && s.Datacenter.Location != nil {
		inst.Region = s.Datacenter.Location.Name
	}
	return inst
}

// mapServerStatus translates a Hetzner server status into the instance
// status and power status pair.
func mapServerStatus(status hcloud.ServerStatus) (string, string) {
	switch status {
	case hcloud.ServerStatusRunning:
		return cloud.StatusActive, cloud.PowerRunning
	case hcloud.ServerStatusOff, hcloud.ServerStatusStopping:
		return cloud.StatusActive, cloud.PowerStopped
	case hcloud.ServerStatusDeleting:
		return cloud.StatusDead, cloud.PowerStopped
	default:
		return cloud.StatusPending, cloud.PowerStopped
	}
}

func notFound(op, kind, id string) error {
	return &cloud.Error{
		Kind:       cloud.KindClient,
		Op:         op,
		StatusCode: http.StatusNotFound,
		Err:        fmt.Errorf("%s %s not found", kind, id),
	}
}
