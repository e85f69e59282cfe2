package vultr

import (
	"time"

	"github.com/imamik/quantserver/pkg/cloud"
)

// pageSize is the per_page value for list calls.
const pageSize = 100

type instance struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Status      string `json:"status"`
	PowerStatus string `json:"power_status"`
	MainIP      string `json:"main_ip"`
	Region      string `json:"region"`
	Plan        string `json:"plan"`
}

func (i instance) toCloud() cloud.Instance {
	return cloud.Instance{
		ID:          i.ID,
		Label:       i.Label,
		Status:      i.Status,
		PowerStatus: i.PowerStatus,
		MainIP:      i.MainIP,
		Region:      i.Region,
		Plan:        i.Plan,
	}
}

type snapshot struct {
	ID          string `json:"id"`
	DateCreated string `json:"date_created"`
	Description string `json:"description"`
	Size        int64  `json:"size"`
	Status      string `json:"status"`
}

func (s snapshot) toCloud() cloud.Snapshot {
	out := cloud.Snapshot{
		ID:          s.ID,
		Description: s.Description,
		Status:      s.Status,
		Size:        s.Size,
	}
	if t, err := time.Parse(time.RFC3339, s.DateCreated); err == nil {
		out.CreatedAt = t.UTC()
	}
	return out
}

type meta struct {
	Total int `json:"total"`
	Links struct {
		Next string `json:"next"`
		Prev string `json:"prev"`
	} `json:"links"`
}

type instanceResponse struct {
	Instance instance `json:"instance"`
}

type instanceListResponse struct {
	Instances []instance `json:"instances"`
	Meta      meta       `json:"meta"`
}

type snapshotResponse struct {
	Snapshot snapshot `json:"snapshot"`
}

type snapshotListResponse struct {
	Snapshots []snapshot `json:"snapshots"`
	Meta      meta       `json:"meta"`
}

type createInstanceRequest struct {
	Region     string `json:"region"`
	Plan       string `json:"plan"`
	SnapshotID string `json:"snapshot_id"`
	Label      string `json:"label"`
	Backups    string `json:"backups"`
	UserData   string `json:"user_data,omitempty"`
}

type createSnapshotRequest struct {
	InstanceID  string `json:"instance_id"`
	Description string `json:"description"`
}
