package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/riderops/riderops/pkg/model"
)

// 日期解析依次尝试的布局，日在前的写法优先于月在前
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",
	"2/1/2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate 将任意常见写法解析为规范日期，失败时ok为false。
// 纯数字按Excel序列日期处理。
func ParseDate(raw string) (model.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.DateFormat), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format(model.DateFormat), true
		}
	}

	return "", false
}

// ParseClock 将时刻写法解析为HH:MM，失败时ok为false。
// 0到1之间的小数按Excel当日占比处理。
func ParseClock(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	for _, layout := range []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}

	if frac, err := strconv.ParseFloat(s, 64); err == nil && frac >= 0 && frac < 1 {
		total := int(frac*24*60 + 0.5)
		return fmt.Sprintf("%02d:%02d", total/60, total%60), true
	}

	return "", false
}
