package cloud

import "time"

// Instance status values reported by providers.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusResizing  = "resizing"
	StatusDead      = "dead"
)

// Instance power status values.
const (
	PowerRunning = "running"
	PowerStopped = "stopped"
)

// Snapshot status values.
const (
	SnapshotPending  = "pending"
	SnapshotComplete = "complete"
	SnapshotError    = "error"
)

// Instance is a compute node as reported by the provider.
type Instance struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Status      string `json:"status" yaml:"status"`
	PowerStatus string `json:"power_status" yaml:"power_status"`
	MainIP      string `json:"main_ip" yaml:"main_ip"`
	Region      string `json:"region" yaml:"region"`
	Plan        string `json:"plan" yaml:"plan"`
}

// IsLive reports whether the instance counts as existing for lifecycle purposes.
func (i *Instance) IsLive() bool {
	return i != nil && i.Status != StatusDead
}

// IsRunning reports whether the instance is active and powered on.
func (i *Instance) IsRunning() bool {
	return i != nil && i.Status == StatusActive && i.PowerStatus == PowerRunning
}

// Snapshot is a point-in-time disk image of an instance.
type Snapshot struct {
	ID          string    `json:"id" yaml:"id"`
	Description string    `json:"description" yaml:"description"`
	Status      string    `json:"status" yaml:"status"`
	InstanceID  string    `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	Size        int64     `json:"size,omitempty" yaml:"size,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at,omitempty"`
}

// InstanceCreateOpts holds the parameters for creating the managed instance.
type InstanceCreateOpts struct {
	Label      string
	Region     string
	Plan       string
	SnapshotID string
	// UserData is the base64-encoded boot payload.
	UserData string
	Backups  bool
}
