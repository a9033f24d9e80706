package receiptparse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Date", func() {
	DescribeTable("extracting the transaction date",
		func(text string, want string, ok bool) {
			got, found := New().Date(text)
			Expect(found).To(Equal(ok))
			Expect(got).To(Equal(want))
		},
		Entry("weekday suffix", "2025/10/07(火)", "2025-10-07", true),
		Entry("kanji date", "2025年3月5日 12:30", "2025-03-05", true),
		Entry("dotted date", "2024.02.29", "2024-02-29", true),
		Entry("two-digit year", "レシート 25/04/01 No.12", "2025-04-01", true),
		Entry("phone number", "03-1234-5678", "", false),
		Entry("free dial number", "0120(123)456", "", false),
		Entry("year after range", "2045/01/01", "", false),
		Entry("year before range", "2019/12/31", "", false),
		Entry("day past month end", "2025/04/31", "", false),
		Entry("month out of range", "2025/13/01", "", false),
		Entry("empty", "", "", false),
	)

	It("should skip a phone line and read the next one", func() {
		got, ok := ExtractDate("TEL 03-1234-5678\n2025/10/07(火) 12:30")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal("2025-10-07"))
	})

	It("should return the first valid date in document order", func() {
		got, ok := ExtractDate("2045/01/01\n2025/01/02\n2025/01/03")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal("2025-01-02"))
	})
})
