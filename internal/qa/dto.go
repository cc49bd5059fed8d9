package qa

import (
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/enums"
)

// Stats aggregates the QA table.
type Stats struct {
	Total             int64           `json:"total"`
	HelpfulCount      int64           `json:"helpful_count"`
	HelpfulPercentage float64         `json:"helpful_percentage"`
	CategoryBreakdown []CategoryCount `json:"category_breakdown"`
	Last7DaysActivity []DailyActivity `json:"last_7_days_activity"`
	CommonQueries     []CommonQuery   `json:"common_queries"`
}

type CategoryCount struct {
	Category enums.TaxCategory `json:"category" gorm:"column:category"`
	Count    int64             `json:"count" gorm:"column:count"`
}

// DailyActivity counts the QA pairs created on one UTC calendar date.
type DailyActivity struct {
	Date                string                      `json:"date"`
	Count               int64                       `json:"count"`
	GSTQueries          int64                       `json:"gst_queries"`
	IncomeTaxQueries    int64                       `json:"income_tax_queries"`
	CorporateTaxQueries int64                       `json:"corporate_tax_queries"`
	ByCategory          map[enums.TaxCategory]int64 `json:"by_category"`
}

type CommonQuery struct {
	Category  enums.TaxCategory `json:"category" gorm:"column:category"`
	Question  string            `json:"question" gorm:"column:question"`
	Frequency int64             `json:"frequency" gorm:"column:frequency"`
}

// SearchFilter holds the optional conjunctive predicates of a search.
type SearchFilter struct {
	Query    string
	Category *enums.TaxCategory
	Helpful  *bool
}

type SearchResult struct {
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
	Results    []SearchItem `json:"results"`
}

type SearchItem struct {
	ID        int64             `json:"id" gorm:"column:id"`
	Question  string            `json:"question" gorm:"column:question"`
	Answer    string            `json:"answer" gorm:"column:answer"`
	Category  enums.TaxCategory `json:"category" gorm:"column:category"`
	IsHelpful *bool             `json:"is_helpful" gorm:"column:is_helpful"`
	CreatedAt time.Time         `json:"created_at" gorm:"column:created_at"`
	UserEmail string            `json:"user_email" gorm:"column:user_email"`
}

// HistoryItem is one exchange in a user's chat history.
type HistoryItem struct {
	ID        int64             `json:"id" gorm:"column:id"`
	Question  string            `json:"question" gorm:"column:question"`
	Answer    string            `json:"answer" gorm:"column:answer"`
	Timestamp time.Time         `json:"timestamp" gorm:"column:created_at"`
	Category  enums.TaxCategory `json:"category" gorm:"column:category"`
	IsHelpful *bool             `json:"is_helpful" gorm:"column:is_helpful"`
}

// FeedbackInput carries a helpfulness vote and/or a rating. At least one of
// IsHelpful or Rating must be set.
type FeedbackInput struct {
	IsHelpful  *bool
	Rating     *int
	Suggestion *string
}

type FeedbackResult struct {
	QAID       int64   `json:"qa_id"`
	IsHelpful  *bool   `json:"is_helpful"`
	Rating     *int    `json:"rating,omitempty"`
	Suggestion *string `json:"suggestion,omitempty"`
}
