package qa

import (
	"sort"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	activityWindow = 7 * 24 * time.Hour
	activityLayout = "2006-01-02"
)

// helpfulPercentage is helpful/total*100 rounded to two places, 0 when total is 0.
func helpfulPercentage(helpful, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(helpful).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(2).
		InexactFloat64()
}

// orderBreakdown sorts counts by classifier priority; unknown categories go
// last, alphabetically.
func orderBreakdown(rows []CategoryCount) []CategoryCount {
	out := make([]CategoryCount, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Category.Rank(), out[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// bucketActivity groups rows by UTC calendar date, newest date first.
func bucketActivity(rows []ActivityRow) []DailyActivity {
	byDate := make(map[string]*DailyActivity)
	for _, row := range rows {
		date := row.CreatedAt.UTC().Format(activityLayout)
		day, ok := byDate[date]
		if !ok {
			day = &DailyActivity{Date: date, ByCategory: map[enums.TaxCategory]int64{}}
			byDate[date] = day
		}
		day.Count++
		day.ByCategory[row.Category]++
		switch row.Category {
		case enums.TaxCategoryGST:
			day.GSTQueries++
		case enums.TaxCategoryIncomeTax:
			day.IncomeTaxQueries++
		case enums.TaxCategoryCorporateTax:
			day.CorporateTaxQueries++
		}
	}

	out := make([]DailyActivity, 0, len(byDate))
	for _, day := range byDate {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
