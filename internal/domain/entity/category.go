package entity

// Category is the enumerated topic tag attached to sources and articles.
type Category string

const (
	CategoryPolitics      Category = "politics"
	CategoryMilitary      Category = "military"
	CategoryTechnology    Category = "technology"
	CategoryEconomy       Category = "economy"
	CategoryWorld         Category = "world"
	CategoryChinaUS       Category = "china_us"
	CategoryRussiaUkraine Category = "russia_ukraine"
	CategoryKorea         Category = "korea"
	CategorySoutheastAsia Category = "southeast_asia"
	CategoryCNMD          Category = "cnmd"
	CategoryWeiruan       Category = "weiruan"
	CategoryOther         Category = "other"
)

var validCategories = map[Category]bool{
	CategoryPolitics:      true,
	CategoryMilitary:      true,
	CategoryTechnology:    true,
	CategoryEconomy:       true,
	CategoryWorld:         true,
	CategoryChinaUS:       true,
	CategoryRussiaUkraine: true,
	CategoryKorea:         true,
	CategorySoutheastAsia: true,
	CategoryCNMD:          true,
	CategoryWeiruan:       true,
	CategoryOther:         true,
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// String returns the wire form of the category.
func (c Category) String() string {
	return string(c)
}

// Categories returns every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryPolitics, CategoryMilitary, CategoryTechnology, CategoryEconomy,
		CategoryWorld, CategoryChinaUS, CategoryRussiaUkraine, CategoryKorea,
		CategorySoutheastAsia, CategoryCNMD, CategoryWeiruan, CategoryOther,
	}
}
