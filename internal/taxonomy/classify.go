// Package taxonomy splits chat messages into questions and labels each
// question with a tax category.
package taxonomy

import (
	"strings"

	"github.com/angelmondragon/taxchat-backend/pkg/enums"
)

// Rule maps a category to the keywords that select it.
type Rule struct {
	Category enums.TaxCategory
	Keywords []string
}

// Rules is the ordered classification table. The first rule with a keyword
// contained in the lower-cased question wins.
var Rules = []Rule{
	{Category: enums.TaxCategoryGST, Keywords: []string{"gst", "goods and service tax", "input tax", "output tax"}},
	{Category: enums.TaxCategoryIncomeTax, Keywords: []string{"income tax", "itr", "form 16", "tds"}},
	{Category: enums.TaxCategoryCorporateTax, Keywords: []string{"corporate", "company tax", "business tax"}},
	{Category: enums.TaxCategoryTaxPlanning, Keywords: []string{"plan", "saving", "deduction", "exemption"}},
	{Category: enums.TaxCategoryCompliance, Keywords: []string{"comply", "deadline", "file", "return"}},
	{Category: enums.TaxCategoryAccounting, Keywords: []string{"account", "book", "record", "balance"}},
}

// Classify returns the category of question, or general when no rule matches.
func Classify(question string) enums.TaxCategory {
	lowered := strings.ToLower(question)
	for _, rule := range Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule.Category
			}
		}
	}
	return enums.TaxCategoryGeneral
}
