package taxonomy

import (
	"strings"
	"testing"

	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		question string
		want     enums.TaxCategory
	}{
		{"How do I claim input tax credit?", enums.TaxCategoryGST},
		{"What is the GST rate on books?", enums.TaxCategoryGST},
		{"When is my ITR due?", enums.TaxCategoryIncomeTax},
		{"Where do I find Form 16?", enums.TaxCategoryIncomeTax},
		{"What is the corporate rate?", enums.TaxCategoryCorporateTax},
		{"Any saving tips?", enums.TaxCategoryTaxPlanning},
		{"What is the deadline?", enums.TaxCategoryCompliance},
		{"How do I balance my ledger?", enums.TaxCategoryAccounting},
		{"Hello there?", enums.TaxCategoryGeneral},
		{"", enums.TaxCategoryGeneral},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.question), tc.question)
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	// matches gst, income_tax, tax_planning and compliance keywords
	q := "Should I plan my GST and income tax return?"
	assert.Equal(t, enums.TaxCategoryGST, Classify(q))

	// "return" (compliance) and "book" (accounting): compliance ranks higher
	assert.Equal(t, enums.TaxCategoryCompliance, Classify("Do I need a book for my return?"))
}

func TestClassifyIsCaseInsensitiveAndDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, enums.TaxCategoryIncomeTax, Classify("INCOME TAX slabs?"))
	}
}

func TestRulesFollowCategoryPriority(t *testing.T) {
	prev := -1
	for _, r := range Rules {
		assert.Greater(t, r.Category.Rank(), prev, r.Category)
		prev = r.Category.Rank()
		assert.NotEmpty(t, r.Keywords)
	}
}

func TestSplit(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    []string
	}{
		{"empty", "", []string{}},
		{"whitespace", "   ", []string{}},
		{"single without mark", "What is GST", []string{"What is GST?"}},
		{"single with mark", "What is GST?", []string{"What is GST?"}},
		{"two questions", "What is GST? How do I file ITR?", []string{"What is GST?", "How do I file ITR?"}},
		{"newline boundary", "What is TDS?\nWhen is it due?", []string{"What is TDS?", "When is it due?"}},
		{"inner mark kept", "Is v2?beta supported?", []string{"Is v2?beta supported?"}},
		{"repeated marks", "Really?? Yes?", []string{"Really??", "Yes?"}},
		{"only marks", "? ?", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Split(tc.message))
		})
	}
}

func TestSplitFragmentsEndWithQuestionMark(t *testing.T) {
	for _, q := range Split("a? b ? c") {
		assert.True(t, strings.HasSuffix(q, "?"), q)
		assert.Equal(t, strings.TrimSpace(q), q)
		assert.NotEqual(t, "?", q)
	}
}
