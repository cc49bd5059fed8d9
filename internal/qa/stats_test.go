package qa

import (
	"testing"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
)

func TestHelpfulPercentage(t *testing.T) {
	assert.Equal(t, float64(0), helpfulPercentage(0, 0))
	assert.Equal(t, float64(0), helpfulPercentage(3, 0))
	assert.Equal(t, 66.67, helpfulPercentage(2, 3))
	assert.Equal(t, 100.0, helpfulPercentage(7, 7))
	assert.Equal(t, 33.33, helpfulPercentage(1, 3))
}

func TestOrderBreakdownUnknownLast(t *testing.T) {
	rows := []CategoryCount{
		{Category: enums.TaxCategoryGeneral, Count: 1},
		{Category: "zakat", Count: 9},
		{Category: enums.TaxCategoryAccounting, Count: 2},
		{Category: "customs", Count: 4},
		{Category: enums.TaxCategoryGST, Count: 3},
	}
	got := orderBreakdown(rows)

	var order []enums.TaxCategory
	for _, r := range got {
		order = append(order, r.Category)
	}
	assert.Equal(t, []enums.TaxCategory{
		enums.TaxCategoryGST,
		enums.TaxCategoryAccounting,
		enums.TaxCategoryGeneral,
		"customs",
		"zakat",
	}, order)
	assert.Equal(t, enums.TaxCategoryGeneral, rows[0].Category, "input is not reordered")
}

func TestBucketActivityGroupsByUTCDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	rows := []ActivityRow{
		{Category: enums.TaxCategoryGST, CreatedAt: time.Date(2026, 10, 15, 23, 0, 0, 0, time.UTC)},
		// 01:00 IST on the 16th is still the 15th in UTC.
		{Category: enums.TaxCategoryCompliance, CreatedAt: time.Date(2026, 10, 16, 1, 0, 0, 0, ist)},
		{Category: enums.TaxCategoryIncomeTax, CreatedAt: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)},
	}

	days := bucketActivity(rows)
	assert.Len(t, days, 2)
	assert.Equal(t, "2026-10-17", days[0].Date)
	assert.EqualValues(t, 1, days[0].IncomeTaxQueries)
	assert.Equal(t, "2026-10-15", days[1].Date)
	assert.EqualValues(t, 2, days[1].Count)
	assert.EqualValues(t, 1, days[1].GSTQueries)
	assert.EqualValues(t, 1, days[1].ByCategory[enums.TaxCategoryCompliance])

	assert.Empty(t, bucketActivity(nil))
}
