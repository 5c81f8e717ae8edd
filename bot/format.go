package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aliyevk/codedesk-backend/internal/batches"
	"github.com/aliyevk/codedesk-backend/internal/codes"
	"github.com/aliyevk/codedesk-backend/internal/finance"
	"github.com/aliyevk/codedesk-backend/internal/market"
	"github.com/aliyevk/codedesk-backend/pkg/db/models"
	"github.com/aliyevk/codedesk-backend/pkg/enums"
)

func formatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

func formatOptionalPrice(price *decimal.Decimal) string {
	if price == nil || price.IsZero() {
		return "unpriced"
	}
	return formatMoney(*price)
}

func formatSubmitResult(result *codes.SubmitResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Accepted %d code(s).", result.Accepted)
	if result.Accepted > 0 {
		fmt.Fprintf(&sb, " Batch #%d", result.BatchID)
	}
	if len(result.Duplicates) > 0 {
		fmt.Fprintf(&sb, "\nSkipped %d duplicate(s): %s", len(result.Duplicates), strings.Join(result.Duplicates, ", "))
	}
	if len(result.InvalidFormat) > 0 {
		fmt.Fprintf(&sb, "\nRejected %d invalid: %s", len(result.InvalidFormat), strings.Join(result.InvalidFormat, ", "))
	}
	return sb.String()
}

func formatStatusCounts(counts map[enums.CodeStatus]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for status := range counts {
		keys = append(keys, string(status))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", key, counts[enums.CodeStatus(key)]))
	}
	return strings.Join(parts, ", ")
}

func formatBatchView(view batches.BatchView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch #%d [%s] %s\n", view.BatchID, view.Status, view.CodeType)
	fmt.Fprintf(&sb, "  %d code(s), %d priced (%s), %d unpriced",
		view.Count, view.PricedCount, formatMoney(view.PricedValue), view.UnpricedCount)
	if counts := formatStatusCounts(view.StatusCounts); counts != "" {
		fmt.Fprintf(&sb, "\n  %s", counts)
	}
	return sb.String()
}

func formatBatchList(views []batches.BatchView, max int) string {
	if len(views) == 0 {
		return "No batches yet. Send /sell to submit codes."
	}
	shown := views
	if max > 0 && len(shown) > max {
		shown = shown[len(shown)-max:]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, view := range shown {
		parts = append(parts, formatBatchView(view))
	}
	if len(shown) < len(views) {
		parts = append(parts, fmt.Sprintf("...and %d older batch(es).", len(views)-len(shown)))
	}
	return strings.Join(parts, "\n\n")
}

func formatBatchDetail(detail *batches.BatchDetail) string {
	var sb strings.Builder
	sb.WriteString(formatBatchView(detail.BatchView))
	sb.WriteString("\n")
	for _, record := range detail.Codes {
		fmt.Fprintf(&sb, "\n%s  [%s] %s", record.Code, record.Status, formatOptionalPrice(record.Price))
		if record.Note != nil && *record.Note != "" {
			fmt.Fprintf(&sb, "  (%s)", *record.Note)
		}
	}
	return sb.String()
}

func formatSnapshot(snap *finance.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Balance owed: %s\n", formatMoney(snap.TotalOwed))
	fmt.Fprintf(&sb, "Paid out to date: %s\n", formatMoney(snap.TotalPaid))
	fmt.Fprintf(&sb, "Unpriced codes: %d", snap.UnpricedCount)
	if len(snap.PerType) > 0 {
		types := make([]string, 0, len(snap.PerType))
		for codeType := range snap.PerType {
			types = append(types, codeType)
		}
		sort.Strings(types)
		for _, codeType := range types {
			stats := snap.PerType[codeType]
			fmt.Fprintf(&sb, "\n  %s: %d priced (%s), %d unpriced",
				codeType, stats.Priced, formatMoney(stats.Owed), stats.Unpriced)
		}
	}
	return sb.String()
}

func formatSummary(summary *finance.SystemSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Users: %d, codes: %d\n", summary.UserCount, summary.CodeCount)
	fmt.Fprintf(&sb, "Total owed: %s\n", formatMoney(summary.TotalOwed))
	fmt.Fprintf(&sb, "Total paid: %s\n", formatMoney(summary.TotalPaid))
	fmt.Fprintf(&sb, "Unpriced codes: %d", summary.UnpricedCount)
	for _, snap := range summary.PerUser {
		if snap.TotalOwed.IsZero() && snap.UnpricedCount == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n  user %d: owed %s, %d unpriced", snap.UserID, formatMoney(snap.TotalOwed), snap.UnpricedCount)
	}
	return sb.String()
}

func formatBoard(rows []market.BoardRow) string {
	if len(rows) == 0 {
		return "The price board is empty."
	}
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		line := fmt.Sprintf("%s: %s, demand %s", row.CodeType, formatOptionalPrice(row.Price), row.Demand)
		if row.Manual {
			line += " (set manually)"
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n")
}

func formatLedger(entries []models.PayoutEntry) string {
	if len(entries) == 0 {
		return "No payouts recorded yet."
	}
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, fmt.Sprintf("%s  %s via %s for %d code(s)",
			entry.CreatedAt.Format("2006-01-02"), formatMoney(entry.Amount), entry.Method, entry.CodeCount))
	}
	return strings.Join(parts, "\n")
}

func formatQueueItem(item *batches.QueueItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pricing queue: @%s (user %d)\n\n", item.Handle, item.UserID)
	sb.WriteString(formatBatchDetail(&item.Detail))
	return sb.String()
}

func formatSearchResults(records []models.CodeRecord) string {
	if len(records) == 0 {
		return "No matching codes."
	}
	parts := make([]string, 0, len(records))
	for _, record := range records {
		parts = append(parts, fmt.Sprintf("%s  @%s batch #%d [%s] %s",
			record.Code, record.Handle, record.BatchID, record.Status, formatOptionalPrice(record.Price)))
	}
	return strings.Join(parts, "\n")
}
