// Package s3 provides a small client for S3-compatible object storage.
//
// It covers what the backup manifest store needs: making sure the bucket
// exists, writing objects and removing them. Endpoints other than AWS
// (MinIO, Hetzner Object Storage, Vultr Object Storage) are supported through
// Options.Endpoint and path-style addressing.
package s3
