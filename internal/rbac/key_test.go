package rbac_test

import (
	"github.com/frahmantamala/school-core/internal/rbac"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseKey", func() {
	DescribeTable("accepts well-formed keys",
		func(raw string, expected rbac.Key) {
			k, err := rbac.ParseKey(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(k).To(Equal(expected))
			Expect(k.String()).To(Equal(raw))
		},
		Entry("concrete", "attendance.upload", rbac.Key{Resource: "attendance", Action: "upload"}),
		Entry("wildcard", "role.*", rbac.Key{Resource: "role", Wildcard: true}),
		Entry("underscore and digits", "report_v2.export_csv", rbac.Key{Resource: "report_v2", Action: "export_csv"}),
	)

	DescribeTable("rejects malformed keys",
		func(raw string) {
			_, err := rbac.ParseKey(raw)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ""),
		Entry("no dot", "attendance"),
		Entry("two dots", "a.b.c"),
		Entry("empty action", "attendance."),
		Entry("empty resource", ".upload"),
		Entry("wildcard resource", "*.upload"),
		Entry("upper case", "Attendance.upload"),
		Entry("partial wildcard", "attendance.up*"),
	)
})

var _ = Describe("PermissionSet", func() {
	It("lets a wildcard grant every action of its resource and nothing else", func() {
		set := rbac.NewPermissionSet(rbac.MustParseKey("attendance.*"))

		Expect(set.Allows(rbac.MustParseKey("attendance.upload"))).To(BeTrue())
		Expect(set.Allows(rbac.MustParseKey("attendance.view"))).To(BeTrue())
		Expect(set.Allows(rbac.MustParseKey("exam.upload"))).To(BeFalse())
		Expect(set.Allows(rbac.MustParseKey("attendance_extra.view"))).To(BeFalse())
	})

	It("never satisfies a wildcard requirement", func() {
		set := rbac.NewPermissionSet(rbac.MustParseKey("role.*"))
		Expect(set.Allows(rbac.MustParseKey("role.*"))).To(BeFalse())
	})

	It("deduplicates and sorts", func() {
		set := rbac.NewPermissionSet(rbac.MustParseKey("role.view"), rbac.MustParseKey("audit.view"))
		set.Add(rbac.MustParseKey("role.view"))

		Expect(set.Len()).To(Equal(2))
		Expect(set.Strings()).To(Equal([]string{"audit.view", "role.view"}))
	})
})
