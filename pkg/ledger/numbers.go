package ledger

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ToFloat 宽容的数值转换，无法解析时返回0
func ToFloat(v any) float64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		s = strings.TrimPrefix(s, "$")
		return cast.ToFloat64(s)
	}
	return cast.ToFloat64(v)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate 解析ISO及常见历史格式的日期，只保留日期部分
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04PM",
}

// ResolveTimestamp 把成交时间字符串落到具体日期上
// 完整时间戳直接使用；仅有时刻的与会话日期合并；无法解析时退化为仅日期排序
func ResolveTimestamp(s string, date time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return date
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		}
	}
	return date
}

// WeekdayLabel 星期分桶标签，周一为一周起点
func WeekdayLabel(t time.Time) string {
	return t.Weekday().String()
}

// HourLabel 小时分桶标签，如 "09:00"
func HourLabel(t time.Time) string {
	return t.Format("15:00")
}

// DateKey 日期归一化，用于按日聚合
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
