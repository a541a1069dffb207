package upload_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/tenancy"
	"github.com/frahmantamala/school-core/internal/upload"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func activeProject(id int64) tenancy.Context {
	return tenancy.NewContext(&tenancy.Project{ID: id, Name: "Greenfield", Status: tenancy.StatusActive}, time.Now())
}

var _ = Describe("Pipeline", func() {
	var (
		store    *fakeStore
		catalog  *fakeCatalog
		pipeline *upload.Pipeline
		ctx      context.Context
	)

	BeforeEach(func() {
		store = newFakeStore()
		catalog = &fakeCatalog{
			students: upload.StudentDirectory{"S001": 1},
			exams:    examCatalog(),
		}
		pipeline = upload.NewPipeline(store, catalog, quietLogger())
		ctx = context.Background()
	})

	attendanceInput := func(rows ...upload.Row) upload.Input {
		return upload.Input{Project: activeProject(1), UploadedBy: 9, Domain: upload.DomainAttendance, FileName: "march.csv", Rows: rows}
	}
	examInput := func(rows ...upload.Row) upload.Input {
		return upload.Input{Project: activeProject(1), UploadedBy: 9, Domain: upload.DomainExam, Rows: rows}
	}

	Describe("attendance with the partial policy", func() {
		It("partially succeeds when one of three rows has a bad date", func() {
			batch, err := pipeline.Run(ctx, attendanceInput(
				attendanceRow("S001", "Ana", "2024-03-01", "present"),
				attendanceRow("S002", "Budi", "2024-13-45", "present"),
				attendanceRow("S003", "Citra", "2024-03-01", "absent"),
			), upload.PartialPolicy{})

			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Status).To(Equal(upload.StatusPartiallySucceeded))
			Expect(batch.TotalRows).To(Equal(3))
			Expect(batch.SuccessfulRows).To(Equal(2))
			Expect(batch.FailedRows).To(Equal(1))
			Expect(batch.Outcomes).To(HaveLen(3))
			Expect(batch.Outcomes[1].Status).To(Equal(upload.OutcomeSkipped))
			Expect(batch.Outcomes[1].RowNumber).To(Equal(3))
			Expect(batch.Outcomes[1].Column).To(Equal("date"))
			Expect(batch.Message).To(Equal("Partially imported: 2 of 3 rows imported, 1 skipped."))
			Expect(store.attendance).To(HaveLen(2))
			Expect(store.finalized[batch.ID]).To(Equal(1))
		})

		It("succeeds only when nothing is skipped", func() {
			batch, err := pipeline.Run(ctx, attendanceInput(
				attendanceRow("S001", "Ana", "2024-03-01", "present"),
				attendanceRow("S001", "Ana", "2024-03-02", "late"),
			), upload.PartialPolicy{})

			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Status).To(Equal(upload.StatusSucceeded))
			Expect(batch.CountOutcomes(upload.OutcomeSkipped)).To(BeZero())
			Expect(batch.Message).To(Equal("Successfully imported 2 records."))
		})

		It("persists the batch even when every row is skipped", func() {
			batch, err := pipeline.Run(ctx, attendanceInput(
				upload.Row{"student_id": "S001"},
				upload.Row{"status": "present"},
			), upload.PartialPolicy{})

			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Status).To(Equal(upload.StatusPartiallySucceeded))
			Expect(batch.SuccessfulRows).To(BeZero())
			Expect(store.batchCount()).To(Equal(1))
			Expect(store.attendance).To(BeEmpty())
		})

		It("skips a row whose write fails and keeps going", func() {
			store.failApply = func(d upload.Decision) bool {
				return d.Attendance != nil && d.Attendance.StudentCode == "S002"
			}

			batch, err := pipeline.Run(ctx, attendanceInput(
				attendanceRow("S001", "Ana", "2024-03-01", "present"),
				attendanceRow("S002", "Budi", "2024-03-01", "present"),
			), upload.PartialPolicy{})

			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Status).To(Equal(upload.StatusPartiallySucceeded))
			Expect(batch.Outcomes[1].Status).To(Equal(upload.OutcomeSkipped))
			Expect(batch.Outcomes[1].Reason).To(Equal("Failed to save record"))
			Expect(store.attendance).To(HaveLen(1))
		})

		It("keeps the batch out of pending when only the outcomes fail to save", func() {
			store.failFinalize = errors.New("outcomes insert failed")

			batch, err := pipeline.Run(ctx, attendanceInput(
				attendanceRow("S001", "Ana", "2024-03-01", "present"),
				attendanceRow("S001", "Ana", "soon", "present"),
			), upload.PartialPolicy{})

			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Status).To(Equal(upload.StatusPartiallySucceeded))
			Expect(batch.Outcomes).To(HaveLen(2))
			stored := store.batches[batch.ID]
			Expect(stored.Status).To(Equal(upload.StatusPartiallySucceeded))
			Expect(stored.SuccessfulRows).To(Equal(1))
			Expect(store.attendance).To(HaveLen(1))
		})

		It("tells the caller not to resubmit when the batch cannot be finished", func() {
			store.failFinalize = errors.New("connection reset")
			store.failMark = errors.New("connection reset")

			_, err := pipeline.Run(ctx, attendanceInput(
				attendanceRow("S001", "Ana", "2024-03-01", "present"),
			), upload.PartialPolicy{})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUploadFailed))
			Expect(appErr.Message).To(ContainSubstring("Do not resubmit"))
			Expect(appErr.Details).To(HaveKeyWithValue("saved_rows", 1))
			Expect(appErr.Details).To(HaveKey("upload_id"))
			Expect(store.attendance).To(HaveLen(1))
		})
	})

	Describe("exam with the atomic policy", func() {
		It("fails the whole batch when row 4 of 5 is over the maximum", func() {
			batch, err := pipeline.Run(ctx, examInput(
				examRow("S001", "70", "100"),
				examRow("S002", "80", "100"),
				examRow("S001", "90", "100"),
				examRow("S002", "110", "100"),
				examRow("S001", "60", "100"),
			), upload.AtomicPolicy{})

			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Status).To(Equal(upload.StatusFailed))
			Expect(batch.SuccessfulRows).To(BeZero())
			Expect(batch.Outcomes).To(HaveLen(5))
			Expect(batch.Outcomes[3].Status).To(Equal(upload.OutcomeRejected))
			Expect(batch.Outcomes[3].Reason).To(ContainSubstring("exceeds max_marks"))
			for _, i := range []int{0, 1, 2, 4} {
				Expect(batch.Outcomes[i].Status).To(Equal(upload.OutcomeSkipped))
				Expect(batch.Outcomes[i].Reason).To(Equal("batch rejected"))
			}
			Expect(store.exams).To(BeEmpty())
			Expect(store.batchCount()).To(Equal(1))
		})

		It("creates one record per row when every row is valid", func() {
			batch, err := pipeline.Run(ctx, examInput(
				examRow("S001", "70", "100"),
				examRow("S002", "100", "100"),
				examRow("S001", "0", "50"),
			), upload.AtomicPolicy{})

			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Status).To(Equal(upload.StatusSucceeded))
			Expect(batch.CountOutcomes(upload.OutcomeApplied)).To(Equal(3))
			Expect(store.exams).To(HaveLen(3))
		})

		It("reports UPLOAD_FAILED and keeps nothing when the transaction fails", func() {
			store.failCommit = errors.New("connection reset")

			_, err := pipeline.Run(ctx, examInput(examRow("S001", "70", "100")), upload.AtomicPolicy{})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeUploadFailed))
			Expect(store.batchCount()).To(BeZero())
		})
	})

	Describe("cancellation", func() {
		It("persists nothing when cancelled before commit", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			batch, err := pipeline.Run(cancelled, attendanceInput(
				attendanceRow("S001", "Ana", "2024-03-01", "present"),
			), upload.PartialPolicy{})

			Expect(batch).To(BeNil())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(store.batchCount()).To(BeZero())
			Expect(store.attendance).To(BeEmpty())
		})
	})

	It("refuses a suspended project", func() {
		suspended := tenancy.NewContext(&tenancy.Project{ID: 1, Status: tenancy.StatusSuspended}, time.Now())

		_, err := pipeline.Run(ctx, upload.Input{Project: suspended, Domain: upload.DomainAttendance,
			Rows: []upload.Row{attendanceRow("S001", "Ana", "2024-03-01", "present")}}, upload.PartialPolicy{})

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeProjectSuspended))
		Expect(store.batchCount()).To(BeZero())
	})

	It("reports a snapshot failure as an internal error", func() {
		catalog.err = errors.New("db down")

		_, err := pipeline.Run(ctx, examInput(examRow("S001", "70", "100")), upload.AtomicPolicy{})

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInternal))
	})
})
