package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/quantserver/internal/metrics"
	"github.com/imamik/quantserver/internal/util/poll"
	"github.com/imamik/quantserver/pkg/cloud"
)

// SnapshotOptions configures a SnapshotController.
type SnapshotOptions struct {
	// Prefix is the backup description prefix, without the trailing dash.
	Prefix          string
	PollInterval    time.Duration
	CompleteTimeout time.Duration
}

// SnapshotController manages backup snapshots.
type SnapshotController struct {
	provider cloud.SnapshotService
	opts     SnapshotOptions
	log      logr.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewSnapshotController creates a SnapshotController.
func NewSnapshotController(provider cloud.SnapshotService, opts SnapshotOptions, log logr.Logger, rec *metrics.Recorder) *SnapshotController {
	return &SnapshotController{
		provider: provider,
		opts:     opts,
		log:      log,
		metrics:  rec,
		now:      time.Now,
	}
}

// Create takes a backup snapshot of an instance and returns its id. The
// create call is not retried.
func (c *SnapshotController) Create(ctx context.Context, instanceID string) (*cloud.Snapshot, error) {
	desc := BackupDescription(c.opts.Prefix, c.now())
	c.log.Info("Creating snapshot", "instance", instanceID, "description", desc)

	snap, err := c.provider.CreateSnapshot(ctx, instanceID, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot of instance %s: %w", instanceID, err)
	}
	c.log.Info("Snapshot created", "id", snap.ID, "description", snap.Description)
	return snap, nil
}

// WaitComplete polls a snapshot until it is complete. A snapshot in the
// error state fails with cloud.KindTerminal; one still pending at the
// deadline fails with cloud.KindTimeout.
func (c *SnapshotController) WaitComplete(ctx context.Context, id string) (*cloud.Snapshot, error) {
	op := "wait for snapshot " + id
	c.log.Info("Waiting for snapshot to complete", "id", id, "timeout", c.opts.CompleteTimeout.String())

	res, err := poll.Until(ctx, poll.Options{Interval: c.opts.PollInterval, Timeout: c.opts.CompleteTimeout},
		func(ctx context.Context, n int) (*cloud.Snapshot, poll.State, error) {
			snap, err := c.provider.GetSnapshot(ctx, id)
			if err != nil {
				return nil, poll.Pending, err
			}
			c.log.V(1).Info("Snapshot status", "id", id, "status", snap.Status, "poll", n)
			switch snap.Status {
			case cloud.SnapshotComplete:
				return snap, poll.Done, nil
			case cloud.SnapshotError:
				return snap, poll.Broken, nil
			default:
				return snap, poll.Pending, nil
			}
		})
	if err != nil {
		c.metrics.RecordWait("snapshot", metrics.ResultError, res.Elapsed)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.metrics.RecordWait("snapshot", res.Outcome.String(), res.Elapsed)

	switch res.Outcome {
	case poll.Ready:
		c.log.Info("Snapshot complete", "id", id, "elapsed", res.Elapsed.Round(time.Second).String())
		return res.Value, nil
	case poll.Failed:
		return nil, cloud.NewError(cloud.KindTerminal, op, errors.New("snapshot entered error state"))
	default:
		return nil, cloud.NewError(cloud.KindTimeout, op,
			fmt.Errorf("snapshot not complete after %s", c.opts.CompleteTimeout))
	}
}

// Backups lists all backup snapshots in any state, newest first.
func (c *SnapshotController) Backups(ctx context.Context) ([]cloud.Snapshot, error) {
	all, err := c.provider.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	var backups []cloud.Snapshot
	for _, s := range all {
		if IsBackup(s.Description, c.opts.Prefix) {
			backups = append(backups, s)
		}
	}
	SortBackups(backups)
	c.metrics.SetBackupCount(len(backups))
	return backups, nil
}

// Latest returns the newest complete backup, or nil when there is none.
func (c *SnapshotController) Latest(ctx context.Context) (*cloud.Snapshot, error) {
	backups, err := c.Backups(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range backups {
		if s.Status == cloud.SnapshotComplete {
			c.log.Info("Latest backup snapshot", "id", s.ID, "description", s.Description)
			return &s, nil
		}
	}
	c.log.Info("No backup snapshot found")
	return nil, nil
}

// PruneResult reports what a prune run planned and did.
type PruneResult struct {
	Policy  RetentionPolicy `json:"policy" yaml:"policy"`
	Plan    PrunePlan       `json:"plan" yaml:"plan"`
	DryRun  bool            `json:"dry_run" yaml:"dry_run"`
	Deleted []string        `json:"deleted" yaml:"deleted"`
	Failed  []string        `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Plan lists the backups and computes the current prune plan without
// deleting anything.
func (c *SnapshotController) Plan(ctx context.Context, policy RetentionPolicy) ([]cloud.Snapshot, PrunePlan, error) {
	backups, err := c.Backups(ctx)
	if err != nil {
		return nil, PrunePlan{}, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return backups, PlanPrune(backups, c.opts.Prefix, policy, c.now()), nil
}

// Prune deletes the backups selected by policy. Every deletion is attempted;
// failures are joined into the returned error. With dryRun set nothing is
// deleted.
func (c *SnapshotController) Prune(ctx context.Context, policy RetentionPolicy, dryRun bool) (*PruneResult, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retention policy: %w", err)
	}

	backups, plan, err := c.Plan(ctx, policy)
	if err != nil {
		return nil, err
	}
	result := &PruneResult{Policy: policy, Plan: plan, DryRun: dryRun}

	if len(backups) == 0 {
		c.log.Info("No backup snapshots found")
		return result, nil
	}
	if len(plan.Delete) == 0 {
		c.log.Info("No old snapshots to prune", "retain_days", policy.RetainDays, "max_count", policy.MaxCount)
		return result, nil
	}
	if dryRun {
		for _, cand := range plan.Delete {
			c.log.Info("Would prune snapshot", "id", cand.Snapshot.ID, "description", cand.Snapshot.Description)
		}
		return result, nil
	}

	var errs []error
	for _, cand := range plan.Delete {
		c.log.Info("Pruning snapshot", "id", cand.Snapshot.ID, "description", cand.Snapshot.Description)
		if err := c.provider.DeleteSnapshot(ctx, cand.Snapshot.ID); err != nil {
			result.Failed = append(result.Failed, cand.Snapshot.ID)
			errs = append(errs, err)
			continue
		}
		result.Deleted = append(result.Deleted, cand.Snapshot.ID)
	}
	c.metrics.RecordPruned(len(result.Deleted))
	c.log.Info("Pruned snapshots", "count", len(result.Deleted), "failed", len(result.Failed))

	if len(errs) > 0 {
		return result, fmt.Errorf("failed to prune %d of %d snapshots: %w", len(errs), len(plan.Delete), errors.Join(errs...))
	}
	return result, nil
}
