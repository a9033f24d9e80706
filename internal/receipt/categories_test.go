package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Categories", func() {
	It("should flatten subcategories after their parent", func() {
		Expect(FlattenCategories([]CategoryNode{
			{Name: "食費"},
			{Name: "日用品", Subcategories: []string{"洗剤", "ティッシュ"}},
		})).To(Equal([]string{"食費", "日用品", "日用品 > 洗剤", "日用品 > ティッシュ"}))
	})

	It("should keep expense and income apart", func() {
		Expect(Categories(Expense)).To(ContainElements("食費", "教育", "日用品 > その他日用品"))
		Expect(Categories(Expense)).NotTo(ContainElement("給料"))
		Expect(Categories(Income)).To(Equal([]string{"給料", "ボーナス", "副業", "投資", "その他収入"}))
	})

	DescribeTable("splitting names",
		func(name, parent, child string) {
			Expect(ParentCategory(name)).To(Equal(parent))
			Expect(SubcategoryName(name)).To(Equal(child))
		},
		Entry("subcategory", "日用品 > 洗剤", "日用品", "洗剤"),
		Entry("top level", "食費", "", "食費"),
	)

	DescribeTable("validCategory",
		func(t TransactionType, name string, want bool) {
			Expect(validCategory(t, name)).To(Equal(want))
		},
		Entry("expense category", Expense, "交通費", true),
		Entry("expense subcategory", Expense, "日用品 > トイレットペーパー", true),
		Entry("uncategorized expense", Expense, Uncategorized, true),
		Entry("uncategorized income", Income, Uncategorized, true),
		Entry("income category on expense", Expense, "ボーナス", false),
		Entry("bare subcategory", Expense, "洗剤", false),
		Entry("unknown", Income, "宝くじ", false),
	)
})
