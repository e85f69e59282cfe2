// Package hcloud implements cloud.Provider on top of the Hetzner Cloud API.
//
// Servers map to instances (name is the label, server type is the plan,
// location is the region) and snapshot images map to snapshots. Reads and
// deletes are retried with the same linear backoff as the Vultr client;
// create calls are sent once.
//
// # Error Classification
//
// hcloud API errors carrying a 4xx status, or the not_found, invalid_input
// and invalid_server_type codes, are client errors and are never retried.
// Locked and conflicting resources, rate limits, server errors and network
// failures are retried until the attempt budget runs out.
package hcloud
