package enums

import "fmt"

// TaxCategory labels a question with the tax domain it belongs to.
type TaxCategory string

const (
	TaxCategoryGST          TaxCategory = "gst"
	TaxCategoryIncomeTax    TaxCategory = "income_tax"
	TaxCategoryCorporateTax TaxCategory = "corporate_tax"
	TaxCategoryTaxPlanning  TaxCategory = "tax_planning"
	TaxCategoryCompliance   TaxCategory = "compliance"
	TaxCategoryAccounting   TaxCategory = "accounting"
	TaxCategoryGeneral      TaxCategory = "general"
)

// validTaxCategories is ordered by classification priority; general is the
// fallback and always last.
var validTaxCategories = []TaxCategory{
	TaxCategoryGST,
	TaxCategoryIncomeTax,
	TaxCategoryCorporateTax,
	TaxCategoryTaxPlanning,
	TaxCategoryCompliance,
	TaxCategoryAccounting,
	TaxCategoryGeneral,
}

// TaxCategories returns every category in priority order.
func TaxCategories() []TaxCategory {
	out := make([]TaxCategory, len(validTaxCategories))
	copy(out, validTaxCategories)
	return out
}

// IsValid checks whether the given category matches the canonical enum.
func (c TaxCategory) IsValid() bool {
	return c.Rank() < len(validTaxCategories)
}

// Rank is the category's position in priority order. Unknown values rank
// after every known category.
func (c TaxCategory) Rank() int {
	for i, candidate := range validTaxCategories {
		if candidate == c {
			return i
		}
	}
	return len(validTaxCategories)
}

// ParseTaxCategory converts raw strings into TaxCategory.
func ParseTaxCategory(value string) (TaxCategory, error) {
	for _, candidate := range validTaxCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax category %q", value)
}
