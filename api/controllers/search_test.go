package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/taxchat-backend/pkg/enums"
	"github.com/angelmondragon/taxchat-backend/pkg/pagination"
)

func TestQASearchParsesFilters(t *testing.T) {
	svc := &stubQAService{}
	handler := QASearch(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat/qa/search?query=%20gst%20return%20&category=GST&helpful=false&page=2&page_size=25", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.filter.Query != "gst return" {
		t.Fatalf("expected trimmed query got %q", svc.filter.Query)
	}
	if svc.filter.Category == nil || *svc.filter.Category != enums.TaxCategoryGST {
		t.Fatalf("expected lowered gst category got %+v", svc.filter.Category)
	}
	if svc.filter.Helpful == nil || *svc.filter.Helpful {
		t.Fatalf("expected helpful=false got %+v", svc.filter.Helpful)
	}
	if svc.page.Number != 2 || svc.page.Size != 25 {
		t.Fatalf("expected page 2 size 25 got %+v", svc.page)
	}
}

func TestQASearchDefaults(t *testing.T) {
	svc := &stubQAService{}
	handler := QASearch(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat/qa/search", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.page.Number != 1 || svc.page.Size != pagination.DefaultPageSize {
		t.Fatalf("expected default page got %+v", svc.page)
	}
	if svc.filter.Category != nil || svc.filter.Helpful != nil {
		t.Fatalf("expected no optional filters got %+v", svc.filter)
	}
}

func TestQASearchCapsQueryLength(t *testing.T) {
	svc := &stubQAService{}
	handler := QASearch(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat/qa/search?query="+strings.Repeat("a", maxSearchQueryLength+50), nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := len([]rune(svc.filter.Query)); got != maxSearchQueryLength {
		t.Fatalf("expected query capped at %d runes got %d", maxSearchQueryLength, got)
	}
}

func TestQASearchRejectsBadPaging(t *testing.T) {
	for _, query := range []string{"page=0", "page_size=101", "page=x", "helpful=perhaps"} {
		t.Run(query, func(t *testing.T) {
			svc := &stubQAService{}
			handler := QASearch(svc, nil)

			req := httptest.NewRequest(http.MethodGet, "/chat/qa/search?"+query, nil)
			resp := httptest.NewRecorder()

			handler.ServeHTTP(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
			if svc.calls != 0 {
				t.Fatalf("expected service not to be called")
			}
		})
	}
}
