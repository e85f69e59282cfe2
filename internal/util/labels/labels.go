// Package labels builds the labels attached to provider resources.
//
// Only providers with key/value labels use them (Hetzner Cloud). Vultr
// identifies the instance by its label string and backups by description.
package labels

// Standard label keys. The quantserver prefix keeps them apart from labels
// set by other tools in the same project.
const (
	// KeyManagedBy identifies the management system
	KeyManagedBy = "quantserver/managed-by"

	// KeyInstance carries the instance label a resource belongs to
	KeyInstance = "quantserver/instance"

	// KeyRole identifies what a resource is (server, backup)
	KeyRole = "quantserver/role"
)

// Role values
const (
	RoleServer = "server"
	RoleBackup = "backup"
)

// ManagedByQuantserver is the KeyManagedBy value of resources created here.
const ManagedByQuantserver = "quantserver"

// LabelBuilder provides a fluent interface for building resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder with the instance label and the
// managed-by marker pre-set. An empty instance label is left out.
func NewLabelBuilder(instanceLabel string) *LabelBuilder {
	lb := &LabelBuilder{
		labels: map[string]string{KeyManagedBy: ManagedByQuantserver},
	}
	if instanceLabel != "" {
		lb.labels[KeyInstance] = instanceLabel
	}
	return lb
}

// WithRole adds a role label.
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}
