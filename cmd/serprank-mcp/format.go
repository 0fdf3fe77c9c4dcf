package main

import (
	"fmt"
	"strings"

	"github.com/use-agent/serprank/models"
)

// topResults is how many listing entries a tool answer shows.
const topResults = 10

func formatRank(r *models.RankResponse) string {
	var sb strings.Builder
	if r.ActiveRank != nil {
		fmt.Fprintf(&sb, "%s ranks #%d for %q\nSource: %s\n", r.Target, *r.ActiveRank, r.Keyword, deref(r.SourceURL))
	} else {
		fmt.Fprintf(&sb, "%s not found for %q in %d page(s)\n", r.Target, r.Keyword, r.PagesFetched)
	}
	fmt.Fprintf(&sb, "Top 10 matches: %d\n", r.Top10Count)

	if len(r.Results) > 0 {
		sb.WriteString("\n")
		for i, rec := range r.Results {
			if i == topResults {
				fmt.Fprintf(&sb, "... %d more\n", len(r.Results)-topResults)
				break
			}
			fmt.Fprintf(&sb, "%2d. %s\n    %s\n", rec.Rank, rec.Title, rec.URL)
		}
	}
	return sb.String()
}

func formatBatch(b *models.BatchResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Target %s: %d/%d keywords checked\n\n", b.Target, b.Succeeded, b.Total)
	for _, item := range b.Items {
		switch {
		case item.Error != nil:
			fmt.Fprintf(&sb, "- %q: FAILED %s\n", item.Keyword, formatError(*item.Error))
		case item.Result != nil && item.Result.ActiveRank != nil:
			fmt.Fprintf(&sb, "- %q: #%d (%s)\n", item.Keyword, *item.Result.ActiveRank, deref(item.Result.SourceURL))
		default:
			fmt.Fprintf(&sb, "- %q: not found\n", item.Keyword)
		}
	}
	return sb.String()
}

func formatError(e models.ErrorResponse) string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Error)
	if e.Page > 0 {
		msg += fmt.Sprintf(" (page %d)", e.Page)
	}
	if e.Details != "" && e.Details != e.Error {
		msg += ": " + e.Details
	}
	return msg
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
