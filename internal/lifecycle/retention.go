package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/imamik/quantserver/pkg/cloud"
)

// backupDateLayout is the date suffix of a backup description.
const backupDateLayout = "20060102"

// RetentionPolicy bounds how many backups are kept and for how long.
type RetentionPolicy struct {
	// RetainDays is the maximum age in whole days of any backup except the newest.
	RetainDays int `json:"retain_days" yaml:"retain_days"`
	// MaxCount is the maximum number of backups kept.
	MaxCount int `json:"max_count" yaml:"max_count"`
}

// Validate checks the policy bounds.
func (p RetentionPolicy) Validate() error {
	var errs []error
	if p.RetainDays < 0 {
		errs = append(errs, fmt.Errorf("retain days must be >= 0, got %d", p.RetainDays))
	}
	if p.MaxCount < 1 {
		errs = append(errs, fmt.Errorf("max count must be >= 1, got %d", p.MaxCount))
	}
	return errors.Join(errs...)
}

// PruneCandidate is a backup selected for deletion and the rules that selected it.
type PruneCandidate struct {
	Snapshot cloud.Snapshot `json:"snapshot" yaml:"snapshot"`
	Reasons  []string       `json:"reasons" yaml:"reasons"`
}

// PrunePlan splits the backups into the ones to keep and the ones to delete.
// Both lists are ordered newest first.
type PrunePlan struct {
	Keep   []cloud.Snapshot `json:"keep" yaml:"keep"`
	Delete []PruneCandidate `json:"delete" yaml:"delete"`
}

// DeleteIDs returns the ids of the snapshots to delete.
func (p PrunePlan) DeleteIDs() []string {
	ids := make([]string, 0, len(p.Delete))
	for _, c := range p.Delete {
		ids = append(ids, c.Snapshot.ID)
	}
	return ids
}

// IsBackup reports whether a snapshot description carries the backup prefix.
func IsBackup(description, prefix string) bool {
	return strings.HasPrefix(description, prefix+"-")
}

// BackupDescription is the description of a backup taken at t.
func BackupDescription(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format(backupDateLayout)
}

// backupDate parses the date suffix of a backup description.
func backupDate(description, prefix string) (time.Time, bool) {
	t, err := time.Parse(backupDateLayout, strings.TrimPrefix(description, prefix+"-"))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SortBackups orders backups newest first by description. Backups of the
// same day are ordered by creation time.
func SortBackups(backups []cloud.Snapshot) {
	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Description != backups[j].Description {
			return backups[i].Description > backups[j].Description
		}
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
}

// PlanPrune computes which backups the policy deletes at time now.
//
// A backup is deleted when it is not the newest and its date is more than
// RetainDays whole days before now, or when it is beyond the first MaxCount
// backups. Backups whose date suffix does not parse are exempt from the age
// rule. The newest backup is never deleted.
func PlanPrune(backups []cloud.Snapshot, prefix string, policy RetentionPolicy, now time.Time) PrunePlan {
	sorted := make([]cloud.Snapshot, len(backups))
	copy(sorted, backups)
	SortBackups(sorted)

	maxCount := max(policy.MaxCount, 1)
	now = now.UTC()

	var plan PrunePlan
	for i, snap := range sorted {
		var reasons []string
		if i > 0 {
			if date, ok := backupDate(snap.Description, prefix); ok {
				age := int(now.Sub(date) / (24 * time.Hour))
				if age > policy.RetainDays {
					reasons = append(reasons, fmt.Sprintf("older than %d days", policy.RetainDays))
				}
			}
		}
		if i >= maxCount {
			reasons = append(reasons, fmt.Sprintf("beyond max count %d", maxCount))
		}

		if len(reasons) == 0 {
			plan.Keep = append(plan.Keep, snap)
			continue
		}
		plan.Delete = append(plan.Delete, PruneCandidate{Snapshot: snap, Reasons: reasons})
	}
	return plan
}
