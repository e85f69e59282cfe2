package lifecycle

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/quantserver/internal/config"
	"github.com/imamik/quantserver/internal/logging"
	"github.com/imamik/quantserver/internal/manifest"
	"github.com/imamik/quantserver/internal/metrics"
	"github.com/imamik/quantserver/pkg/cloud"
)

// Action names used in logs and metrics.
const (
	ActionStart  = "start"
	ActionStop   = "stop"
	ActionStatus = "status"
	ActionPrune  = "prune"
)

// ManifestPublisher records backups outside the provider.
type ManifestPublisher interface {
	Publish(ctx context.Context, m manifest.Manifest) error
	Remove(ctx context.Context, snapshots []cloud.Snapshot) error
}

// Manager runs the lifecycle actions against one provider.
type Manager struct {
	provider  cloud.Provider
	instances *InstanceController
	snapshots *SnapshotController
	policy    RetentionPolicy
	label     string
	publisher ManifestPublisher
	log       logr.Logger
	metrics   *metrics.Recorder
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(m *Manager) {
		m.metrics = rec
	}
}

// WithPublisher enables manifest publishing after stop and prune.
func WithPublisher(p ManifestPublisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithClock overrides the time source used for backup names and retention.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager wires the controllers for provider from cfg.
func NewManager(provider cloud.Provider, payload PayloadSource, cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		policy: RetentionPolicy{
			RetainDays: cfg.Retention.RetainDays,
			MaxCount:   cfg.Retention.MaxCount,
		},
		label: cfg.Label,
		log:   logr.Discard(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	timeouts := cfg.Timeouts
	if timeouts == nil {
		timeouts = config.DefaultTimeouts()
	}

	m.snapshots = NewSnapshotController(provider, SnapshotOptions{
		Prefix:          cfg.BackupPrefix,
		PollInterval:    timeouts.SnapshotPoll,
		CompleteTimeout: timeouts.SnapshotComplete,
	}, m.log.WithName("snapshot"), m.metrics)
	m.snapshots.now = m.now

	m.instances = NewInstanceController(provider, m.snapshots, payload, InstanceOptions{
		Label:          cfg.Label,
		Region:         cfg.Region,
		Plan:           cfg.Plan,
		BaseSnapshotID: cfg.BaseSnapshotID,
		PollInterval:   timeouts.InstancePoll,
		ActiveTimeout:  timeouts.InstanceActive,
	}, m.log.WithName("instance"), m.metrics)

	return m
}

// Instances returns the instance controller.
func (m *Manager) Instances() *InstanceController { return m.instances }

// Snapshots returns the snapshot controller.
func (m *Manager) Snapshots() *SnapshotController { return m.snapshots }

// StartResult reports the outcome of Start.
type StartResult struct {
	Instance *cloud.Instance `json:"instance" yaml:"instance"`
	// Created is false when the instance was already running.
	Created bool `json:"created" yaml:"created"`
}

// Start brings the instance up. If a live instance already carries the
// label nothing is created.
func (m *Manager) Start(ctx context.Context) (res *StartResult, err error) {
	defer m.record(ActionStart, time.Now(), &err)

	existing, err := m.instances.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up instance: %w", err)
	}
	if existing != nil {
		m.log.Info("Instance already running, nothing to do", "id", existing.ID, "ip", existing.MainIP)
		return &StartResult{Instance: existing}, nil
	}

	inst, err := m.instances.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start instance: %w", err)
	}
	m.log.Info("Instance ready", "id", inst.ID, "ip", inst.MainIP)
	return &StartResult{Instance: inst, Created: true}, nil
}

// StopResult reports the outcome of Stop.
type StopResult struct {
	Instance *cloud.Instance `json:"instance" yaml:"instance"`
	Snapshot *cloud.Snapshot `json:"snapshot" yaml:"snapshot"`
	// Prune is nil when pruning could not run.
	Prune *PruneResult `json:"prune,omitempty" yaml:"prune,omitempty"`
}

// Stop snapshots the instance, waits for the snapshot to complete and then
// destroys the instance. The instance is never destroyed unless its snapshot
// completed. Pruning old backups and publishing the manifest follow as
// best-effort steps whose failures are only logged.
func (m *Manager) Stop(ctx context.Context) (res *StopResult, err error) {
	defer m.record(ActionStop, time.Now(), &err)

	inst, err := m.instances.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up instance: %w", err)
	}
	if inst == nil {
		return nil, cloud.NewError(cloud.KindNotFound, ActionStop,
			fmt.Errorf("no instance labeled %q found", m.label))
	}
	res = &StopResult{Instance: inst}

	snap, err := m.snapshots.Create(ctx, inst.ID)
	if err != nil {
		return res, err
	}
	snap, err = m.snapshots.WaitComplete(ctx, snap.ID)
	if err != nil {
		return res, fmt.Errorf("snapshot did not complete, instance %s left running: %w", inst.ID, err)
	}
	res.Snapshot = snap

	if err := m.instances.Destroy(ctx, inst.ID); err != nil {
		return res, fmt.Errorf("failed to destroy instance %s: %w", inst.ID, err)
	}

	prune, err := m.snapshots.Prune(ctx, m.policy, false)
	if err != nil {
		logging.Warn(m.log, err, "snapshot pruning failed")
	}
	res.Prune = prune

	m.publish(ctx, inst, snap, prune)
	return res, nil
}

// StatusReport is a read-only view of the managed resources.
type StatusReport struct {
	Provider string           `json:"provider" yaml:"provider"`
	Label    string           `json:"label" yaml:"label"`
	Instance *cloud.Instance  `json:"instance" yaml:"instance"`
	Backups  []cloud.Snapshot `json:"backups" yaml:"backups"`
	Policy   RetentionPolicy  `json:"policy" yaml:"policy"`
	Plan     PrunePlan        `json:"plan" yaml:"plan"`
}

// Status reports the live instance, the backups and what pruning would
// delete now. It changes nothing.
func (m *Manager) Status(ctx context.Context) (report *StatusReport, err error) {
	defer m.record(ActionStatus, time.Now(), &err)

	inst, err := m.instances.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up instance: %w", err)
	}
	backups, plan, err := m.snapshots.Plan(ctx, m.policy)
	if err != nil {
		return nil, err
	}
	return &StatusReport{
		Provider: m.provider.Name(),
		Label:    m.label,
		Instance: inst,
		Backups:  backups,
		Policy:   m.policy,
		Plan:     plan,
	}, nil
}

// Prune applies the retention policy on demand. With dryRun set it only
// reports the plan.
func (m *Manager) Prune(ctx context.Context, dryRun bool) (res *PruneResult, err error) {
	defer m.record(ActionPrune, time.Now(), &err)

	res, err = m.snapshots.Prune(ctx, m.policy, dryRun)
	if res != nil && !dryRun {
		m.removeManifests(ctx, res)
	}
	return res, err
}

func (m *Manager) publish(ctx context.Context, inst *cloud.Instance, snap *cloud.Snapshot, prune *PruneResult) {
	if m.publisher == nil {
		return
	}
	if prune != nil && slices.Contains(prune.Deleted, snap.ID) {
		m.log.Info("New backup was pruned by the retention policy, not publishing its manifest",
			"snapshot", snap.ID, "description", snap.Description)
		m.removeManifests(ctx, prune)
		return
	}

	mf := manifest.Manifest{
		Provider:  m.provider.Name(),
		Label:     m.label,
		Instance:  *inst,
		Snapshot:  *snap,
		CreatedAt: m.now().UTC(),
	}
	if prune != nil {
		mf.Pruned = prunedDescriptions(prune)
	}
	if err := m.publisher.Publish(ctx, mf); err != nil {
		logging.Warn(m.log, err, "manifest publish failed", "snapshot", snap.ID)
		return
	}
	m.log.Info("Manifest published", "snapshot", snap.ID)
	m.removeManifests(ctx, prune)
}

func (m *Manager) removeManifests(ctx context.Context, prune *PruneResult) {
	if m.publisher == nil || prune == nil {
		return
	}
	snaps := prunedSnapshots(prune)
	if len(snaps) == 0 {
		return
	}
	if err := m.publisher.Remove(ctx, snaps); err != nil {
		logging.Warn(m.log, err, "failed to remove manifests of pruned snapshots")
	}
}

// prunedSnapshots returns the snapshots actually deleted.
func prunedSnapshots(prune *PruneResult) []cloud.Snapshot {
	var out []cloud.Snapshot
	for _, c := range prune.Plan.Delete {
		if slices.Contains(prune.Deleted, c.Snapshot.ID) {
			out = append(out, c.Snapshot)
		}
	}
	return out
}

func prunedDescriptions(prune *PruneResult) []string {
	var out []string
	for _, snap := range prunedSnapshots(prune) {
		out = append(out, snap.Description)
	}
	return out
}

func (m *Manager) record(action string, start time.Time, err *error) {
	m.metrics.RecordAction(action, *err, time.Since(start))
}
