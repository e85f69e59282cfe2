// Package manifest records backup snapshots in object storage.
//
// After a successful stop a YAML document describing the new backup is
// written to "<prefix>/<description>_<snapshot id>.yaml". Several backups can
// share a description when stop runs twice on one day, so the key carries
// the snapshot id. Pruned backups have their manifests removed. Publishing is optional and best effort: the snapshot
// exists whether or not its manifest does.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/quantserver/internal/config"
	"github.com/imamik/quantserver/internal/platform/s3"
	"github.com/imamik/quantserver/internal/util/retry"
	"github.com/imamik/quantserver/pkg/cloud"
)

const (
	contentType = "application/yaml"

	uploadAttempts = 3
)

// Manifest describes one backup snapshot and the instance it was taken from.
type Manifest struct {
	Provider string         `yaml:"provider"`
	Label    string         `yaml:"label"`
	Instance cloud.Instance `yaml:"instance"`
	Snapshot cloud.Snapshot `yaml:"snapshot"`
	// Pruned lists the descriptions of backups removed in the same run.
	Pruned    []string  `yaml:"pruned,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

// ObjectStore is the subset of the S3 client the publisher needs.
type ObjectStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Publisher writes manifests to a bucket.
type Publisher struct {
	store  ObjectStore
	bucket string
	prefix string
	// timeout bounds each Publish and Remove call when positive.
	timeout time.Duration
	backoff retry.Backoff

	ensureOnce sync.Once
	ensureErr  error
}

// NewPublisher creates a Publisher writing below prefix in bucket.
func NewPublisher(store ObjectStore, bucket, prefix string) *Publisher {
	return &Publisher{
		store:   store,
		bucket:  bucket,
		prefix:  prefix,
		backoff: retry.Exponential(time.Second, 10*time.Second, 2),
	}
}

// NewFromConfig builds a Publisher backed by S3 from the manifest section.
// It returns nil when no bucket is configured.
func NewFromConfig(ctx context.Context, cfg config.ManifestConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := s3.NewClient(ctx, s3.Options{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		PathStyle: cfg.Endpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest store: %w", err)
	}
	return NewPublisher(client, cfg.Bucket, cfg.Prefix), nil
}

// SetTimeout bounds each Publish and Remove call to d. Zero disables the bound.
func (p *Publisher) SetTimeout(d time.Duration) {
	p.timeout = d
}

func (p *Publisher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

// Key returns the object key of the manifest for a backup snapshot.
func (p *Publisher) Key(snap cloud.Snapshot) string {
	return path.Join(p.prefix, snap.Description+"_"+snap.ID+".yaml")
}

// Publish writes m, creating the bucket on first use.
func (p *Publisher) Publish(ctx context.Context, m Manifest) error {
	if m.Snapshot.Description == "" || m.Snapshot.ID == "" {
		return errors.New("manifest snapshot has no id or description")
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if err := p.ensureBucket(ctx); err != nil {
		return err
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	key := p.Key(m.Snapshot)
	err = retry.Do(ctx, func(int) error {
		return p.store.PutObject(ctx, p.bucket, key, contentType, data)
	}, retry.WithMaxAttempts(uploadAttempts), retry.WithBackoff(p.backoff))
	if err != nil {
		return fmt.Errorf("failed to publish manifest %s: %w", key, err)
	}
	return nil
}

// Remove deletes the manifests of the given backup snapshots. Every removal
// is attempted; failures are joined.
func (p *Publisher) Remove(ctx context.Context, snapshots []cloud.Snapshot) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var errs []error
	for _, snap := range snapshots {
		if err := p.store.DeleteObject(ctx, p.bucket, p.Key(snap)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	p.ensureOnce.Do(func() {
		if err := p.store.EnsureBucket(ctx, p.bucket); err != nil {
			p.ensureErr = fmt.Errorf("failed to ensure manifest bucket %s: %w", p.bucket, err)
		}
	})
	return p.ensureErr
}
