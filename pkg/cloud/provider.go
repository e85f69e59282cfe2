package cloud

import "context"

// InstanceService manages compute instances.
type InstanceService interface {
	ListInstances(ctx context.Context) ([]Instance, error)
	GetInstance(ctx context.Context, id string) (*Instance, error)
	CreateInstance(ctx context.Context, opts InstanceCreateOpts) (*Instance, error)
	DeleteInstance(ctx context.Context, id string) error
}

// SnapshotService manages instance snapshots.
type SnapshotService interface {
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	// CreateSnapshot queues a snapshot and returns it without waiting for completion.
	CreateSnapshot(ctx context.Context, instanceID, description string) (*Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// Provider combines everything the lifecycle needs from a cloud.
type Provider interface {
	InstanceService
	SnapshotService
	// Name identifies the provider in logs and metrics.
	Name() string
}
