package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/quantserver/internal/metrics"
	"github.com/imamik/quantserver/internal/util/poll"
	"github.com/imamik/quantserver/pkg/cloud"
)

// PayloadSource produces the base64 boot payload attached to new instances.
type PayloadSource interface {
	UserData() (string, error)
}

// InstanceOptions configures an InstanceController.
type InstanceOptions struct {
	Label          string
	Region         string
	Plan           string
	BaseSnapshotID string
	PollInterval   time.Duration
	ActiveTimeout  time.Duration
}

// InstanceController manages the single labeled instance.
type InstanceController struct {
	provider  cloud.InstanceService
	snapshots *SnapshotController
	payload   PayloadSource
	opts      InstanceOptions
	log       logr.Logger
	metrics   *metrics.Recorder
}

// NewInstanceController creates an InstanceController. snapshots supplies
// the backup to boot from.
func NewInstanceController(provider cloud.InstanceService, snapshots *SnapshotController, payload PayloadSource,
	opts InstanceOptions, log logr.Logger, rec *metrics.Recorder) *InstanceController {
	return &InstanceController{
		provider:  provider,
		snapshots: snapshots,
		payload:   payload,
		opts:      opts,
		log:       log,
		metrics:   rec,
	}
}

// Find returns the live instance carrying the label, or nil. When several
// match, the first one listed wins and the others are reported.
func (c *InstanceController) Find(ctx context.Context) (*cloud.Instance, error) {
	instances, err := c.provider.ListInstances(ctx)
	if err != nil {
		return nil, err
	}

	var found *cloud.Instance
	var extra []string
	for i := range instances {
		inst := &instances[i]
		if inst.Label != c.opts.Label || !inst.IsLive() {
			continue
		}
		if found == nil {
			found = inst
			continue
		}
		extra = append(extra, inst.ID)
	}
	if len(extra) > 0 {
		c.log.Info("Warning: multiple instances share the label, using the first",
			"label", c.opts.Label, "using", found.ID, "ignored", extra)
	}
	return found, nil
}

// SourceSnapshot resolves the snapshot a new instance boots from: the latest
// complete backup, or the base snapshot when there is none.
func (c *InstanceController) SourceSnapshot(ctx context.Context) (string, error) {
	latest, err := c.snapshots.Latest(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to look up latest backup: %w", err)
	}
	if latest != nil {
		return latest.ID, nil
	}
	c.log.Info("Using base snapshot", "id", c.opts.BaseSnapshotID)
	return c.opts.BaseSnapshotID, nil
}

// Create boots a new instance and waits until it is active and running.
func (c *InstanceController) Create(ctx context.Context) (*cloud.Instance, error) {
	snapshotID, err := c.SourceSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	userData, err := c.payload.UserData()
	if err != nil {
		return nil, fmt.Errorf("failed to build boot payload: %w", err)
	}

	c.log.Info("Creating instance", "label", c.opts.Label, "region", c.opts.Region,
		"plan", c.opts.Plan, "snapshot", snapshotID)
	inst, err := c.provider.CreateInstance(ctx, cloud.InstanceCreateOpts{
		Label:      c.opts.Label,
		Region:     c.opts.Region,
		Plan:       c.opts.Plan,
		SnapshotID: snapshotID,
		UserData:   userData,
		Backups:    false,
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("Instance created", "id", inst.ID)

	return c.WaitActive(ctx, inst.ID)
}

// WaitActive polls an instance until it reports active and running. Any
// other status counts as still provisioning. Passing the deadline fails with
// cloud.KindTimeout.
func (c *InstanceController) WaitActive(ctx context.Context, id string) (*cloud.Instance, error) {
	op := "wait for instance " + id
	c.log.Info("Waiting for instance to become active", "id", id, "timeout", c.opts.ActiveTimeout.String())

	res, err := poll.Until(ctx, poll.Options{Interval: c.opts.PollInterval, Timeout: c.opts.ActiveTimeout},
		func(ctx context.Context, n int) (*cloud.Instance, poll.State, error) {
			inst, err := c.provider.GetInstance(ctx, id)
			if err != nil {
				return nil, poll.Pending, err
			}
			c.log.V(1).Info("Instance status", "id", id, "status", inst.Status, "power", inst.PowerStatus, "poll", n)
			if inst.IsRunning() {
				return inst, poll.Done, nil
			}
			return inst, poll.Pending, nil
		})
	if err != nil {
		c.metrics.RecordWait("instance", metrics.ResultError, res.Elapsed)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.metrics.RecordWait("instance", res.Outcome.String(), res.Elapsed)

	if res.Outcome != poll.Ready {
		return nil, cloud.NewError(cloud.KindTimeout, op,
			fmt.Errorf("instance not active after %s", c.opts.ActiveTimeout))
	}
	c.log.Info("Instance active", "id", id, "ip", res.Value.MainIP)
	return res.Value, nil
}

// Destroy deletes an instance without waiting for it to disappear.
func (c *InstanceController) Destroy(ctx context.Context, id string) error {
	c.log.Info("Destroying instance", "id", id)
	if err := c.provider.DeleteInstance(ctx, id); err != nil {
		return err
	}
	c.log.Info("Instance destroyed", "id", id)
	return nil
}
