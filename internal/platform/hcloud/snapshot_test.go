package hcloud

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/quantserver/internal/metrics"
	"github.com/imamik/quantserver/pkg/cloud"
)

func imageJSON(id int, description, status string) map[string]any {
	return map[string]any{
		"id":           id,
		"type":         "snapshot",
		"status":       status,
		"description":  description,
		"image_size":   2.0,
		"created":      "2026-01-01T03:00:00+00:00",
		"created_from": map[string]any{"id": 7, "name": "Quant-Trading-Server"},
	}
}

func TestMapImageStatus(t *testing.T) {
	assert.Equal(t, cloud.SnapshotPending, mapImageStatus(hcloudImageStatus("creating")))
	assert.Equal(t, cloud.SnapshotComplete, mapImageStatus(hcloudImageStatus("available")))
	assert.Equal(t, cloud.SnapshotError, mapImageStatus(hcloudImageStatus("unavailable")))
}

func TestListSnapshots(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/images", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snapshot", r.URL.Query().Get("type"))
		jsonResponse(w, http.StatusOK, map[string]any{
			"images": []any{imageJSON(42, "Quant-Backup-20260101", "available")},
			"meta":   singlePage,
		})
	})

	snaps, err := ts.provider().ListSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "42", snaps[0].ID)
	assert.Equal(t, "Quant-Backup-20260101", snaps[0].Description)
	assert.Equal(t, cloud.SnapshotComplete, snaps[0].Status)
	assert.Equal(t, "7", snaps[0].InstanceID)
	assert.Equal(t, int64(2*bytesPerGB), snaps[0].Size)
	assert.Equal(t, time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC), snaps[0].CreatedAt)
}

func TestCreateAndGetSnapshot(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/servers/7/actions/create_image", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "snapshot", body["type"])
		assert.Equal(t, "Quant-Backup-20260102", body["description"])
		assert.Equal(t, map[string]any{
			"quantserver/managed-by": "quantserver",
			"quantserver/role":       "backup",
		}, body["labels"])
		jsonResponse(w, http.StatusCreated, map[string]any{
			"image":  imageJSON(43, "Quant-Backup-20260102", "creating"),
			"action": map[string]any{"id": 3, "command": "create_image", "status": "running"},
		})
	})
	ts.handleFunc("/images/43", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"image": imageJSON(43, "Quant-Backup-20260102", "available")})
	})

	p := ts.provider()
	ctx := context.Background()

	snap, err := p.CreateSnapshot(ctx, "7", "Quant-Backup-20260102")
	require.NoError(t, err)
	assert.Equal(t, "43", snap.ID)
	assert.Equal(t, cloud.SnapshotPending, snap.Status)
	assert.Equal(t, 0, ts.callCount("GET /actions/3"))

	got, err := p.GetSnapshot(ctx, "43")
	require.NoError(t, err)
	assert.Equal(t, cloud.SnapshotComplete, got.Status)
}

func TestDeleteSnapshot_RetriesServerErrors(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/images/9", func(w http.ResponseWriter, _ *http.Request) {
		apiError(w, http.StatusInternalServerError, "unknown_error", "boom")
	})

	rec := metrics.NewRecorder()
	err := ts.provider(WithMetrics(rec)).DeleteSnapshot(context.Background(), "9")
	require.Error(t, err)
	assert.True(t, cloud.IsKind(err, cloud.KindExhausted))
	assert.GreaterOrEqual(t, ts.callCount("DELETE /images/9"), 3)
}

func TestDeleteSnapshot_NotFoundIsClientError(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/images/9", func(w http.ResponseWriter, _ *http.Request) {
		apiError(w, http.StatusNotFound, "not_found", "image not found")
	})

	err := ts.provider().DeleteSnapshot(context.Background(), "9")
	require.Error(t, err)
	assert.True(t, cloud.IsKind(err, cloud.KindClient))
	assert.Equal(t, 1, ts.callCount("DELETE /images/9"))
}
