package resume

import (
	"strconv"
	"strings"
)

const presentLabel = "Present"

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// FormatDate 将表单里的日期字符串转换为展示文本：
// "" -> ""；"present"(不区分大小写) -> "Present"；"YYYY" 原样返回；
// "YYYY-MM" -> "<Month> YYYY"，月份非法时只返回年份。
func FormatDate(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.EqualFold(raw, "present") {
		return presentLabel
	}

	year, month, found := strings.Cut(raw, "-")
	if !found {
		return raw
	}

	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return year
	}
	return monthNames[m-1] + " " + year
}

// DateRange 生成 "start - end" 展示文本；current 为 true 时结束日期固定为 "Present"，
// EndDate 不会出现在输出中。
func DateRange(start, end string, current bool) string {
	from := FormatDate(strings.TrimSpace(start))
	to := presentLabel
	if !current {
		to = FormatDate(strings.TrimSpace(end))
	}

	switch {
	case from != "" && to != "":
		return from + " - " + to
	case from != "":
		return from
	default:
		return to
	}
}
