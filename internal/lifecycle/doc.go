// Package lifecycle sequences the managed instance through its life.
//
// InstanceController finds, creates and destroys the labeled instance.
// SnapshotController creates backup snapshots, waits for them to complete,
// picks the latest one to boot from and prunes old ones. Manager combines
// both into the start, stop, status and prune actions.
//
// Backups are snapshots whose description is "<prefix>-YYYYMMDD" with the
// date in UTC. Sorting descriptions in descending order puts the newest
// backup first; retention always keeps that one.
package lifecycle
