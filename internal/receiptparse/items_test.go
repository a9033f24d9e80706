package receiptparse

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type nameAmount struct {
	Name   string
	Amount int
}

func namesAndAmounts(items []Item) []nameAmount {
	out := make([]nameAmount, 0, len(items))
	for _, it := range items {
		out = append(out, nameAmount{Name: it.Name, Amount: it.Amount})
	}
	return out
}

var _ = Describe("Items", func() {
	var (
		text  string
		items []Item
	)

	JustBeforeEach(func() {
		items = New(WithIDGenerator(counterIDs())).Items(text)
	})

	When("a name is followed by a bare amount line", func() {
		BeforeEach(func() {
			text = "ミネラルウォーター\n¥120"
		})

		It("should pair them", func() {
			Expect(items).To(Equal([]Item{{ID: "item-1", Name: "ミネラルウォーター", Amount: 120}}))
		})
	})

	When("a name wraps across lines", func() {
		BeforeEach(func() {
			text = "サントリー天然水\n南アルプス\n¥98"
		})

		It("should join the fragments", func() {
			Expect(namesAndAmounts(items)).To(Equal([]nameAmount{{"サントリー天然水南アルプス", 98}}))
		})
	})

	When("a percent line sits inside a wrapped name", func() {
		BeforeEach(func() {
			text = "ミネラル\n8%\nウォーター\n¥120"
		})

		It("should keep the buffered fragments", func() {
			Expect(namesAndAmounts(items)).To(Equal([]nameAmount{{"ミネラルウォーター", 120}}))
		})
	})

	When("a totals line sits between the name and the amount", func() {
		BeforeEach(func() {
			text = "ミネラルウォーター\n合計\n¥120"
		})

		It("should discard the buffered name", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("the same product is listed twice", func() {
		BeforeEach(func() {
			text = "おにぎり 150\nお茶 120\nおにぎり 150"
		})

		It("should fold them into one item", func() {
			Expect(namesAndAmounts(items)).To(Equal([]nameAmount{
				{"おにぎり ×2", 300},
				{"お茶", 120},
			}))
		})

		It("should keep the first id", func() {
			Expect(items[0].ID).To(Equal("item-1"))
		})
	})

	When("duplicates differ only in width and spacing", func() {
		BeforeEach(func() {
			text = "ＡＢＣ お茶 150\nABCお茶 150"
		})

		It("should fold them", func() {
			Expect(namesAndAmounts(items)).To(Equal([]nameAmount{{"ＡＢＣ お茶 ×2", 300}}))
		})
	})

	When("the same name has different prices", func() {
		BeforeEach(func() {
			text = "おにぎり 150\nおにぎり 180"
		})

		It("should keep both", func() {
			Expect(items).To(HaveLen(2))
		})
	})

	When("a discount follows its label", func() {
		BeforeEach(func() {
			text = "パン 200\n会員様割引\n-¥50"
		})

		It("should name the discount after the label", func() {
			Expect(namesAndAmounts(items)).To(Equal([]nameAmount{
				{"パン", 200},
				{"会員様割引", -50},
			}))
		})
	})

	When("a discount has no label", func() {
		BeforeEach(func() {
			text = "パン 200\n-¥30"
		})

		It("should use the generic name", func() {
			Expect(namesAndAmounts(items)).To(Equal([]nameAmount{
				{"パン", 200},
				{"値引き", -30},
			}))
		})
	})

	When("a discount label is followed by a positive amount", func() {
		BeforeEach(func() {
			text = "値引対象\n¥100"
		})

		It("should not turn the label into an item", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("an item carries a quantity", func() {
		BeforeEach(func() {
			text = "コーヒー ×2 300\n* 食パン(6枚) ¥198"
		})

		It("should clean the names", func() {
			Expect(namesAndAmounts(items)).To(Equal([]nameAmount{
				{"コーヒー", 300},
				{"食パン", 198},
			}))
		})
	})

	When("payment and loyalty lines follow the items", func() {
		BeforeEach(func() {
			text = "牛乳 198\n合計 ¥198\n現金 ¥1,000\nお釣り ¥802\nWAONポイント 1"
		})

		It("should ignore them", func() {
			Expect(namesAndAmounts(items)).To(Equal([]nameAmount{{"牛乳", 198}}))
		})
	})

	When("an item price is out of range", func() {
		BeforeEach(func() {
			text = "テレビ 150,000"
		})

		It("should drop it", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("the items add up to an implausible sum", func() {
		BeforeEach(func() {
			var b strings.Builder
			for i := 1; i <= 48; i++ {
				fmt.Fprintf(&b, "テスト商品%02d ¥40,000\n", i)
			}
			b.WriteString("高額商品 ¥80,000\n")
			text = b.String()
		})

		It("should drop the large item and keep the others", func() {
			Expect(items).To(HaveLen(48))
			for _, it := range items {
				Expect(it.Amount).To(Equal(40_000))
			}
		})
	})

	When("a large item is part of a plausible receipt", func() {
		BeforeEach(func() {
			text = "冷蔵庫 ¥80,000\n延長保証 ¥5,000"
		})

		It("should keep it", func() {
			Expect(namesAndAmounts(items)).To(ContainElement(nameAmount{"冷蔵庫", 80_000}))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("should return an empty list", func() {
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})
	})

	It("should hand out distinct ids", func() {
		items := ExtractItems("パン 200\n牛乳 198\nお茶 120")
		Expect(items).To(HaveLen(3))
		Expect(items[0].ID).NotTo(Equal(items[1].ID))
		Expect(items[1].ID).NotTo(Equal(items[2].ID))
	})
})

var _ = Describe("plausible", func() {
	It("should keep every item at the threshold", func() {
		in := []Item{{Name: "a", Amount: 950_000}, {Name: "b", Amount: 50_000}}
		Expect(New().plausible(in)).To(Equal(in))
	})

	It("should drop items of 50,000 and above past it", func() {
		in := []Item{{Name: "a", Amount: 960_000}, {Name: "b", Amount: 49_999}, {Name: "c", Amount: 50_000}}
		Expect(New().plausible(in)).To(Equal([]Item{{Name: "b", Amount: 49_999}}))
	})
})

var _ = Describe("cleanItemName", func() {
	DescribeTable("stripping OCR decoration",
		func(in, want string) {
			Expect(cleanItemName(in)).To(Equal(want))
		},
		Entry("leading bullet", "* おにぎり", "おにぎり"),
		Entry("parenthetical", "おにぎり(鮭)", "おにぎり"),
		Entry("full-width parenthetical", "パン（2個）", "パン"),
		Entry("trailing quantity", "お茶×2", "お茶"),
		Entry("misread leading letter", "iAEON", "AEON"),
		Entry("lowercase brand untouched", "iphoneケース", "iphoneケース"),
	)
})

var _ = Describe("isValidItemName", func() {
	DescribeTable("accepting product names",
		func(name string, valid bool) {
			Expect(isValidItemName(name)).To(Equal(valid))
		},
		Entry("katakana product", "ミネラルウォーター", true),
		Entry("name starting with 日", "日清カップヌードル", true),
		Entry("short keyword inside a longer word", "Fluid", true),
		Entry("digits only", "1234", false),
		Entry("symbols only", "-=-", false),
		Entry("single character", "A", false),
		Entry("date", "2025/01/01", false),
		Entry("phone number", "03-1234-5678", false),
		Entry("long id", "12345678", false),
		Entry("misread logo", "iii", false),
		Entry("short keyword exact", "ID", false),
		Entry("long keyword inside", "ポイントカード", false),
		Entry("month and day", "12月5日", false),
		Entry("currency", "¥100", false),
		Entry("time of day", "レジ10:23", false),
		Entry("no letters", "★☆", false),
	)
})
