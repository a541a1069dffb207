package upload_test

import (
	"strings"

	"github.com/frahmantamala/school-core/internal/upload"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseCSV", func() {
	It("normalizes headers and drops blank lines", func() {
		input := "\ufeffStudent ID,Student Name,Date,Status\n" +
			"S001,Ana,2024-03-01,present\n" +
			",,,\n" +
			"S002,Budi,2024-03-01,absent\n"

		rows, err := upload.ParseCSV(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(2))
		Expect(rows[0].Get("student_id")).To(Equal("S001"))
		Expect(rows[1].Get("student_name")).To(Equal("Budi"))
	})

	It("tolerates short rows", func() {
		rows, err := upload.ParseCSV(strings.NewReader("student_id,remarks\nS001\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(rows[0].Get("remarks")).To(BeEmpty())
	})

	It("fails on an empty file", func() {
		_, err := upload.ParseCSV(strings.NewReader(""))
		Expect(err).To(MatchError(upload.ErrNoHeader))
	})
})

var _ = Describe("SubmitUploadDTO", func() {
	It("stringifies numeric cells", func() {
		dto := upload.SubmitUploadDTO{Rows: []map[string]any{{"Marks Obtained": float64(95), "student_id": "S1", "note": nil}}}

		rows := dto.ToRows()
		Expect(rows[0].Get("marks_obtained")).To(Equal("95"))
		Expect(rows[0].Get("student_id")).To(Equal("S1"))
		Expect(rows[0].Get("note")).To(BeEmpty())
	})
})
