package core

// CategoryOther is the reserved catch-all category. It is the only
// category for which a free-text label is persisted.
const CategoryOther = "Autres"

// CategoryStyle holds the display attributes resolved for a category.
type CategoryStyle struct {
	Icon  string
	Color string
}

// Category pairs a name with its display attributes.
type Category struct {
	Name  string
	Style CategoryStyle
}

var defaultStyle = CategoryStyle{Icon: "💰", Color: "#6B7280"}

var categories = []Category{
	{Name: "Loyer", Style: CategoryStyle{Icon: "🏠", Color: "#3B82F6"}},
	{Name: "Nourriture", Style: CategoryStyle{Icon: "🍔", Color: "#10B981"}},
	{Name: "Boisson", Style: CategoryStyle{Icon: "🥤", Color: "#F59E0B"}},
	{Name: "Habit", Style: CategoryStyle{Icon: "👕", Color: "#8B5CF6"}},
	{Name: "Transport", Style: CategoryStyle{Icon: "🚗", Color: "#EF4444"}},
	{Name: "Connexion", Style: CategoryStyle{Icon: "🌐", Color: "#06B6D4"}},
	{Name: CategoryOther, Style: CategoryStyle{Icon: "•••", Color: "#6B7280"}},
}

// Categories returns the fixed category list in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ResolveCategory looks up display attributes for a category name.
// Unrecognized names fall back to the default style rather than
// failing: category names are a soft enum, not a data-model constraint.
func ResolveCategory(name string) CategoryStyle {
	for _, c := range categories {
		if c.Name == name {
			return c.Style
		}
	}
	return defaultStyle
}
