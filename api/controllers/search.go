package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/taxchat-backend/api/responses"
	"github.com/angelmondragon/taxchat-backend/api/validators"
	"github.com/angelmondragon/taxchat-backend/internal/qa"
	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
	"github.com/angelmondragon/taxchat-backend/pkg/pagination"
)

const maxSearchQueryLength = 200

// QASearch handles GET /chat/qa/search?query&category&helpful&page&page_size.
func QASearch(svc qa.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		helpful, err := validators.ParseQueryBool(r, "helpful")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := qa.SearchFilter{
			Query:   validators.SanitizeString(r.URL.Query().Get("query"), maxSearchQueryLength),
			Helpful: helpful,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category := enums.TaxCategory(strings.ToLower(raw))
			filter.Category = &category
		}

		result, err := svc.Search(r.Context(), filter, pagination.Page{Number: page, Size: size})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
