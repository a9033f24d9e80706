package receiptparse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tax", func() {
	var (
		text  string
		tax   int
		found bool
	)

	JustBeforeEach(func() {
		tax, found = New().Tax(text)
	})

	When("the rate label is followed by the rate and then the amount", func() {
		BeforeEach(func() {
			text = "外税 10%\n10\n¥150"
		})

		It("should skip the rate and return the amount", func() {
			Expect(found).To(BeTrue())
			Expect(tax).To(Equal(150))
		})
	})

	When("tax and amount share a line", func() {
		BeforeEach(func() {
			text = "小計 ¥3,000\n消費税 ¥240"
		})

		It("should return the amount", func() {
			Expect(tax).To(Equal(240))
		})
	})

	When("the amount precedes the label", func() {
		BeforeEach(func() {
			text = "¥96 外税"
		})

		It("should return the amount", func() {
			Expect(tax).To(Equal(96))
		})
	})

	When("noise lines sit between the label and the amount", func() {
		BeforeEach(func() {
			text = "外税 8%\n合計 ¥1,080\n商品数 3\n80円"
		})

		It("should skip them", func() {
			Expect(tax).To(Equal(80))
		})
	})

	When("only the taxable base is printed", func() {
		BeforeEach(func() {
			text = "外税8%対象額 ¥1,000"
		})

		It("should report not found", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("the lookahead amount is too large to be tax", func() {
		BeforeEach(func() {
			text = "外税\n¥5,000"
		})

		It("should report not found", func() {
			Expect(found).To(BeFalse())
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("should report not found", func() {
			Expect(found).To(BeFalse())
		})
	})
})
