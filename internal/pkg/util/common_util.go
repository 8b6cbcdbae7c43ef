package util

import (
	"regexp"
	"strconv"
	"time"
)

var usernameRegex = regexp.MustCompile(`^[0-9a-zA-Z-_.]+$`)

// ValidUsername 用户名只允许字母数字与 -_. 字符
func ValidUsername(name string) bool {
	if len(name) < 2 || len(name) > 40 {
		return false
	}
	return usernameRegex.MatchString(name)
}

// StrToUint64 容错转换，失败返回 0
func StrToUint64(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseCanalTime 解析 Canal 推送的 MySQL DATETIME 字符串
func ParseCanalTime(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
}

// PtrTime 用于将 time.Time 转换为 *time.Time
func PtrTime(t time.Time) *time.Time {
	return &t
}

// PtrString 用于将 string 转换为 *string
func PtrString(s string) *string {
	return &s
}
