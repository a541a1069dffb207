package audit_test

import (
	"context"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/audit"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Recorder", func() {
	var (
		repo     *memoryRepo
		recorder *audit.Recorder
	)

	BeforeEach(func() {
		repo = &memoryRepo{}
		recorder = audit.NewRecorder(repo, quietLogger())
	})

	It("fills request metadata and defaults the outcome", func() {
		ctx := internal.ContextWithRequestMeta(context.Background(), internal.RequestMeta{
			TraceID: "trace-1", IPAddress: "10.0.0.7", UserAgent: "curl/8",
		})

		entry, err := recorder.Append(ctx, audit.Entry{
			ProjectID: 1,
			ActorID:   4,
			Action:    audit.ActionRoleCreated,
			Metadata:  map[string]any{"role": "teacher"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(entry.ID).To(Equal(int64(1)))
		Expect(entry.Outcome).To(Equal(audit.OutcomeSuccess))
		Expect(entry.TraceID).To(Equal("trace-1"))
		Expect(repo.rows[0].IPAddress).To(Equal("10.0.0.7"))
		Expect(repo.rows[0].Metadata).To(MatchJSON(`{"role":"teacher"}`))
		Expect(*repo.rows[0].UserID).To(Equal(int64(4)))
	})

	It("rejects unknown actions and missing projects", func() {
		_, err := recorder.Append(context.Background(), audit.Entry{ProjectID: 1, Action: "USER_LOGIN"})
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.Code).To(Equal(internal.ErrCodeValidation))

		_, err = recorder.Append(context.Background(), audit.Entry{Action: audit.ActionRoleCreated})
		appErr, _ = internal.IsAppError(err)
		Expect(appErr.Code).To(Equal(internal.ErrCodeValidation))
		Expect(repo.rows).To(BeEmpty())
	})

	It("reports a failed write as an internal error", func() {
		repo.insertErr = errDisk

		_, err := recorder.Append(context.Background(), audit.Entry{ProjectID: 1, Action: audit.ActionRoleCreated})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInternal))
	})

	It("records the entry even when the request was cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := recorder.Append(ctx, audit.Entry{ProjectID: 1, ActorID: 4, Action: audit.ActionPermissionDenied, Outcome: audit.OutcomeDenied})

		Expect(err).NotTo(HaveOccurred())
		Expect(repo.rows).To(HaveLen(1))
	})

	It("stores a system action without an actor", func() {
		_, err := recorder.Append(context.Background(), audit.Entry{ProjectID: 1, Action: audit.ActionProjectSuspended})
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.rows[0].UserID).To(BeNil())
	})

	It("caps the page size", func() {
		for i := 0; i < 3; i++ {
			_, err := recorder.Append(context.Background(), audit.Entry{ProjectID: 1, Action: audit.ActionRoleCreated})
			Expect(err).NotTo(HaveOccurred())
		}

		entries, err := recorder.ListByProject(context.Background(), 1, audit.ListFilter{Limit: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))

		entries, err = recorder.ListByProject(context.Background(), 1, audit.ListFilter{Limit: 10000})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(3))
	})
})
