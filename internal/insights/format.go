package insights

import (
	"fmt"
	"time"

	"github.com/Veraticus/mindspend/internal/model"
)

// FormatDuration renders a total of minutes. Under a day it reads "1h 30m";
// beyond that it counts 8-hour workdays ("3d 2h") and then 220-workday years ("1y 5d").
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	hours := minutes / 60
	mins := minutes % 60

	if hours < 24 {
		switch {
		case hours == 0:
			return fmt.Sprintf("%dm", mins)
		case mins == 0:
			return fmt.Sprintf("%dh", hours)
		default:
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
	}

	workdays := hours / model.HoursPerWorkday
	remaining := hours % model.HoursPerWorkday
	if workdays >= model.DefaultWorkingDaysPerYear {
		return fmt.Sprintf("%dy %dd", workdays/model.DefaultWorkingDaysPerYear, workdays%model.DefaultWorkingDaysPerYear)
	}
	return fmt.Sprintf("%dd %dh", workdays, remaining)
}

// TimeAgo renders how long before now t happened, falling back to a date after a week.
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	mins := int(diff / time.Minute)
	hours := mins / 60
	days := hours / 24

	switch {
	case mins < 1:
		return "Just now"
	case mins < 60:
		return fmt.Sprintf("%d min ago", mins)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Local().Format(time.DateOnly)
	}
}

// Recent returns at most HistoryViewLimit records from a newest-first list.
func Recent(records []model.PurchaseRecord) []model.PurchaseRecord {
	if len(records) > HistoryViewLimit {
		return records[:HistoryViewLimit]
	}
	return records
}
