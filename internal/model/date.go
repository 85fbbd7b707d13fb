package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Date 日报日期（不含年份，工作表中以 MM-DD 存储）
type Date struct {
	Month int
	Day   int
}

var daysInMonth = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

var canonicalDatePattern = regexp.MustCompile(`^(\d{2})-(\d{2})$`)

// NewDate 校验月份与日并构造日期；2 月允许 29 日（年份不持久化）
func NewDate(month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("月份无效: %d (应在 1-12 之间)", month)
	}
	if day < 1 || day > daysInMonth[month-1] {
		return Date{}, fmt.Errorf("%d月不能有%d日", month, day)
	}
	return Date{Month: month, Day: day}, nil
}

// ParseDate 解析 MM-DD 格式
func ParseDate(s string) (Date, error) {
	m := canonicalDatePattern.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("日期格式错误: %q (应为 MM-DD 格式)", s)
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	return NewDate(month, day)
}

// String 规范化 MM-DD
func (d Date) String() string {
	return fmt.Sprintf("%02d-%02d", d.Month, d.Day)
}

// IsZero 是否为空日期
func (d Date) IsZero() bool {
	return d.Month == 0 && d.Day == 0
}

// In 将日期放到指定年份（用于与当前日期比较）
//
// 2 月 29 日在平年会被 time.Date 归一化为 3 月 1 日。
func (d Date) In(year int, loc *time.Location) time.Time {
	return time.Date(year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

// MarshalText 以 MM-DD 编码
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText 从 MM-DD 解码
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
