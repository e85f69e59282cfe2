// Package fakes provides an in-memory cloud.Provider for tests.
package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/imamik/quantserver/pkg/cloud"
)

// FakeProvider simulates a cloud account holding instances and snapshots.
//
// New instances report pending until they have been read InstanceReadyAfter
// times, then active/running. New snapshots report pending until read
// SnapshotReadyAfter times, then SnapshotFinalStatus (complete by default).
type FakeProvider struct {
	mu        sync.Mutex
	Instances map[string]*cloud.Instance
	Snapshots map[string]*cloud.Snapshot
	nextID    int

	InstanceReadyAfter  int
	SnapshotReadyAfter  int
	SnapshotFinalStatus string

	// Err hooks fire before the matching operation mutates state.
	ListInstancesErr  error
	CreateInstanceErr error
	CreateSnapshotErr error
	DeleteSnapshotErr map[string]error

	// Calls records every operation in order, e.g. "DeleteInstance:i-1".
	Calls []string
	// CreatedWith holds the options of every CreateInstance call.
	CreatedWith []cloud.InstanceCreateOpts

	reads map[string]int
}

// NewFakeProvider returns an empty account.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Instances:           make(map[string]*cloud.Instance),
		Snapshots:           make(map[string]*cloud.Snapshot),
		SnapshotFinalStatus: cloud.SnapshotComplete,
		nextID:              1,
		reads:               make(map[string]int),
	}
}

// Name implements cloud.Provider.
func (f *FakeProvider) Name() string { return "fake" }

// AddInstance seeds an instance.
func (f *FakeProvider) AddInstance(inst cloud.Instance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Instances[inst.ID] = &inst
}

// AddSnapshot seeds a snapshot.
func (f *FakeProvider) AddSnapshot(snap cloud.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Snapshots[snap.ID] = &snap
}

// CallsNamed returns the recorded calls of one operation.
func (f *FakeProvider) CallsNamed(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if len(c) >= len(op) && c[:len(op)] == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeProvider) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *FakeProvider) newID(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, f.nextID)
	f.nextID++
	return id
}

// ListInstances implements cloud.InstanceService.
func (f *FakeProvider) ListInstances(_ context.Context) ([]cloud.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListInstances")
	if f.ListInstancesErr != nil {
		return nil, f.ListInstancesErr
	}
	out := make([]cloud.Instance, 0, len(f.Instances))
	for _, inst := range f.Instances {
		out = append(out, *inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetInstance implements cloud.InstanceService.
func (f *FakeProvider) GetInstance(_ context.Context, id string) (*cloud.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetInstance:%s", id)
	inst, ok := f.Instances[id]
	if !ok {
		return nil, &cloud.Error{Kind: cloud.KindClient, Op: "GET /instances/" + id, StatusCode: 404}
	}
	f.reads[id]++
	if inst.Status == cloud.StatusPending && f.reads[id] >= f.InstanceReadyAfter {
		inst.Status = cloud.StatusActive
		inst.PowerStatus = cloud.PowerRunning
		inst.MainIP = "203.0.113.10"
	}
	cp := *inst
	return &cp, nil
}

// CreateInstance implements cloud.InstanceService.
func (f *FakeProvider) CreateInstance(_ context.Context, opts cloud.InstanceCreateOpts) (*cloud.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateInstance:%s", opts.SnapshotID)
	f.CreatedWith = append(f.CreatedWith, opts)
	if f.CreateInstanceErr != nil {
		return nil, f.CreateInstanceErr
	}
	inst := &cloud.Instance{
		ID:          f.newID("i"),
		Label:       opts.Label,
		Status:      cloud.StatusPending,
		PowerStatus: cloud.PowerStopped,
		Region:      opts.Region,
		Plan:        opts.Plan,
	}
	if f.InstanceReadyAfter <= 0 {
		inst.Status = cloud.StatusActive
		inst.PowerStatus = cloud.PowerRunning
		inst.MainIP = "203.0.113.10"
	}
	f.Instances[inst.ID] = inst
	cp := *inst
	return &cp, nil
}

// DeleteInstance implements cloud.InstanceService.
func (f *FakeProvider) DeleteInstance(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteInstance:%s", id)
	if _, ok := f.Instances[id]; !ok {
		return &cloud.Error{Kind: cloud.KindClient, Op: "DELETE /instances/" + id, StatusCode: 404}
	}
	delete(f.Instances, id)
	return nil
}

// ListSnapshots implements cloud.SnapshotService.
func (f *FakeProvider) ListSnapshots(_ context.Context) ([]cloud.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListSnapshots")
	out := make([]cloud.Snapshot, 0, len(f.Snapshots))
	for _, s := range f.Snapshots {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetSnapshot implements cloud.SnapshotService.
func (f *FakeProvider) GetSnapshot(_ context.Context, id string) (*cloud.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetSnapshot:%s", id)
	snap, ok := f.Snapshots[id]
	if !ok {
		return nil, &cloud.Error{Kind: cloud.KindClient, Op: "GET /snapshots/" + id, StatusCode: 404}
	}
	f.reads[id]++
	if snap.Status == cloud.SnapshotPending && f.reads[id] >= f.SnapshotReadyAfter {
		snap.Status = f.SnapshotFinalStatus
	}
	cp := *snap
	return &cp, nil
}

// CreateSnapshot implements cloud.SnapshotService.
func (f *FakeProvider) CreateSnapshot(_ context.Context, instanceID, description string) (*cloud.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSnapshot:%s", instanceID)
	if f.CreateSnapshotErr != nil {
		return nil, f.CreateSnapshotErr
	}
	snap := &cloud.Snapshot{
		ID:          f.newID("s"),
		Description: description,
		Status:      cloud.SnapshotPending,
		InstanceID:  instanceID,
	}
	f.Snapshots[snap.ID] = snap
	cp := *snap
	return &cp, nil
}

// DeleteSnapshot implements cloud.SnapshotService.
func (f *FakeProvider) DeleteSnapshot(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSnapshot:%s", id)
	if err := f.DeleteSnapshotErr[id]; err != nil {
		return err
	}
	delete(f.Snapshots, id)
	return nil
}
