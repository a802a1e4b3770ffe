package http

import (
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"spese/internal/core"
	"spese/internal/snapshot"
)

// sanitizeInput removes control characters (except tab, newline and
// carriage return) and trims whitespace. Bytes that are not valid UTF-8 are
// kept as they are so validation can reject them.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= 32 || r == 9 || r == 10 || r == 13 {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// extractClientIP returns the client address, preferring proxy headers.
func extractClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type categoryAmountResponse struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type summaryResponse struct {
	Reference   string                   `json:"reference"`
	Count       int                      `json:"count"`
	Total       string                   `json:"total"`
	Weekly      string                   `json:"weekly"`
	Monthly     string                   `json:"monthly"`
	TopCategory *categoryAmountResponse  `json:"top_category"`
	ByCategory  []categoryAmountResponse `json:"by_category"`
}

func newSummaryResponse(s core.Summary) summaryResponse {
	resp := summaryResponse{
		Reference:  s.Reference.Format(time.RFC3339),
		Count:      s.Count,
		Total:      core.FormatAmount(s.TotalBalance),
		Weekly:     core.FormatAmount(s.WeeklyTotal),
		Monthly:    core.FormatAmount(s.MonthlyTotal),
		ByCategory: make([]categoryAmountResponse, 0, len(s.ByCategory)),
	}
	if s.Top != nil {
		resp.TopCategory = &categoryAmountResponse{
			Category: s.Top.Category.String(),
			Amount:   core.FormatAmount(s.Top.Amount),
		}
	}
	for _, ca := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountResponse{
			Category: ca.Category.String(),
			Amount:   core.FormatAmount(ca.Amount),
		})
	}
	return resp
}

type transactionResponse struct {
	Transaction snapshot.Record `json:"transaction"`
	Warning     string          `json:"warning,omitempty"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
	Default    string   `json:"default"`
}

func newCategoriesResponse() categoriesResponse {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return categoriesResponse{Categories: names, Default: core.DefaultCategory().String()}
}
