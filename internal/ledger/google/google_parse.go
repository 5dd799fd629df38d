package google

import (
	"fmt"
	"strings"
	"time"

	"fincoach/internal/core"
)

var dateLayouts = []string{"2006-01-02", "1/2/2006", "2006/01/02", "Jan 2, 2006"}

// parseLedger converts a values matrix (as returned by the Sheets API) into
// transactions. The first row must be a header naming Date, Description,
// Amount and Category in any order. Invalid rows are skipped and counted.
func parseLedger(values [][]interface{}) ([]core.Transaction, int, error) {
	if len(values) == 0 {
		return nil, 0, nil
	}
	headers := toStrings(values[0])
	cols := map[string]int{}
	var missing []string
	for _, name := range []string{"Date", "Description", "Amount", "Category"} {
		idx := indexOf(headers, name)
		if idx == -1 {
			missing = append(missing, name)
		}
		cols[name] = idx
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("unexpected ledger header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.Transaction
	skipped := 0
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		date, ok := parseDate(safeGet(row, cols["Date"]))
		if !ok {
			skipped++
			continue
		}
		amount, err := core.ParseAmount(safeGet(row, cols["Amount"]))
		if err != nil {
			skipped++
			continue
		}
		tx := core.Transaction{
			Date:        date,
			Description: safeGet(row, cols["Description"]),
			Amount:      amount,
			Category:    core.Category(safeGet(row, cols["Category"])),
		}
		if tx.Validate() != nil {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	return out, skipped, nil
}

func parseDate(s string) (core.Date, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, true
		}
	}
	return core.Date{}, false
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
