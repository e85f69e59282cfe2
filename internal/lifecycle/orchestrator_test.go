package lifecycle_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/quantserver/internal/config"
	"github.com/imamik/quantserver/internal/lifecycle"
	"github.com/imamik/quantserver/internal/logging"
	"github.com/imamik/quantserver/pkg/cloud"
	"github.com/imamik/quantserver/pkg/cloud/fakes"
)

type payload string

func (p payload) UserData() (string, error) { return string(p), nil }

var _ = Describe("Lifecycle Manager", func() {
	var (
		ctx     context.Context
		fake    *fakes.FakeProvider
		manager *lifecycle.Manager
		now     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)
		fake = fakes.NewFakeProvider()

		cfg := config.Default()
		cfg.BaseSnapshotID = "base-snap"
		cfg.Timeouts = &config.Timeouts{
			InstanceActive:   time.Second,
			InstancePoll:     time.Millisecond,
			SnapshotComplete: time.Second,
			SnapshotPoll:     time.Millisecond,
		}
		manager = lifecycle.NewManager(fake, payload("ZWNobyBoaQ=="), cfg,
			lifecycle.WithLogger(logging.New(GinkgoWriter, 1)),
			lifecycle.WithClock(func() time.Time { return now }))
	})

	// callIndex returns the position of the first recorded call equal to name.
	callIndex := func(name string) int {
		for i, c := range fake.Calls {
			if c == name {
				return i
			}
		}
		return -1
	}

	Describe("a full start and stop cycle", func() {
		It("restores from the backup taken by the previous stop", func() {
			By("starting from the base snapshot on an empty account")
			started, err := manager.Start(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(started.Created).To(BeTrue())
			Expect(fake.CreatedWith[0].SnapshotID).To(Equal("base-snap"))
			id := started.Instance.ID

			By("starting again without creating anything")
			again, err := manager.Start(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Created).To(BeFalse())
			Expect(again.Instance.ID).To(Equal(id))
			Expect(fake.CallsNamed("CreateInstance")).To(HaveLen(1))

			By("stopping, which snapshots before destroying")
			fake.SnapshotReadyAfter = 2
			stopped, err := manager.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stopped.Snapshot.Description).To(Equal("Quant-Backup-20260520"))
			Expect(callIndex("CreateSnapshot:" + id)).To(BeNumerically("<", callIndex("DeleteInstance:"+id)))
			Expect(fake.Instances).To(BeEmpty())

			By("starting from the new backup the next day")
			now = now.Add(24 * time.Hour)
			restarted, err := manager.Start(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(restarted.Created).To(BeTrue())
			Expect(fake.CreatedWith[1].SnapshotID).To(Equal(stopped.Snapshot.ID))
		})
	})

	Describe("stopping", func() {
		BeforeEach(func() {
			fake.AddInstance(cloud.Instance{
				ID:          "i-live",
				Label:       config.DefaultLabel,
				Status:      cloud.StatusActive,
				PowerStatus: cloud.PowerRunning,
			})
		})

		Context("when the snapshot ends in error", func() {
			BeforeEach(func() {
				fake.SnapshotReadyAfter = 1
				fake.SnapshotFinalStatus = cloud.SnapshotError
			})

			It("leaves the instance running", func() {
				_, err := manager.Stop(ctx)
				Expect(err).To(HaveOccurred())
				Expect(cloud.KindOf(err)).To(Equal(cloud.KindTerminal))
				Expect(fake.CallsNamed("DeleteInstance")).To(BeEmpty())
				Expect(fake.Instances).To(HaveKey("i-live"))
			})
		})

		Context("when older backups exceed the retention policy", func() {
			BeforeEach(func() {
				for days := 1; days <= 5; days++ {
					fake.AddSnapshot(cloud.Snapshot{
						ID:          "old-" + now.AddDate(0, 0, -days).Format("0102"),
						Description: lifecycle.BackupDescription(config.DefaultBackupPrefix, now.AddDate(0, 0, -days)),
						Status:      cloud.SnapshotComplete,
					})
				}
			})

			It("prunes only after the instance is gone", func() {
				res, err := manager.Stop(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Prune).NotTo(BeNil())
				Expect(res.Prune.Deleted).To(ConsistOf("old-0517", "old-0516", "old-0515"))

				destroyed := callIndex("DeleteInstance:i-live")
				for _, id := range res.Prune.Deleted {
					Expect(callIndex("DeleteSnapshot:" + id)).To(BeNumerically(">", destroyed))
				}
				Expect(fake.Snapshots).To(HaveKey(res.Snapshot.ID))
			})
		})
	})
})
