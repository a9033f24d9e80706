package receipt

import "strings"

const (
	// Uncategorized is accepted for every transaction type
	Uncategorized = "未分類"

	categorySeparator = " > "
)

// CategoryNode is a top-level category with optional subcategories
type CategoryNode struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// DefaultExpenseCategories is the built-in expense taxonomy
var DefaultExpenseCategories = []CategoryNode{
	{Name: "食費"},
	{Name: "交通費"},
	{Name: "日用品", Subcategories: []string{"洗剤", "トイレットペーパー", "ティッシュ", "その他日用品"}},
	{Name: "娯楽"},
	{Name: "医療費"},
	{Name: "光熱費"},
	{Name: "通信費"},
	{Name: "家賃"},
	{Name: "衣服"},
	{Name: "教育"},
}

// DefaultIncomeCategories is the built-in income taxonomy
var DefaultIncomeCategories = []CategoryNode{
	{Name: "給料"},
	{Name: "ボーナス"},
	{Name: "副業"},
	{Name: "投資"},
	{Name: "その他収入"},
}

// FlattenCategories lists every parent followed by its "Parent > Child" names
func FlattenCategories(nodes []CategoryNode) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Name)
		for _, sub := range n.Subcategories {
			out = append(out, n.Name+categorySeparator+sub)
		}
	}
	return out
}

// ParentCategory returns the parent of a "Parent > Child" name, or "" for a
// top-level category
func ParentCategory(name string) string {
	parent, _, ok := strings.Cut(name, categorySeparator)
	if !ok {
		return ""
	}
	return parent
}

// SubcategoryName returns the child of a "Parent > Child" name, or the name
// itself for a top-level category
func SubcategoryName(name string) string {
	_, child, ok := strings.Cut(name, categorySeparator)
	if !ok {
		return name
	}
	return child
}

// Categories returns the flattened category names for a transaction type
func Categories(t TransactionType) []string {
	if t == Income {
		return FlattenCategories(DefaultIncomeCategories)
	}
	return FlattenCategories(DefaultExpenseCategories)
}

func validCategory(t TransactionType, name string) bool {
	if name == Uncategorized {
		return true
	}
	for _, c := range Categories(t) {
		if c == name {
			return true
		}
	}
	return false
}
