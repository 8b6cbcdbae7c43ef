package util

import (
	"testing"
	"time"
)

func TestValidUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"正常用户名", "alice-01", true},
		{"带点和下划线", "a.b_c", true},
		{"太短", "a", false},
		{"太长", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"带空格", "a b", false},
		{"带中文", "用户", false},
		{"空串", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidUsername(tt.in); got != tt.want {
				t.Errorf("ValidUsername(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrToUint64(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"42", 42},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"-1", 0},
		{"18446744073709551615", 18446744073709551615},
	}
	for _, tt := range tests {
		if got := StrToUint64(tt.in); got != tt.want {
			t.Errorf("StrToUint64(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseCanalTime(t *testing.T) {
	got, err := ParseCanalTime("2025-06-01 12:30:45")
	if err != nil {
		t.Fatalf("ParseCanalTime() error = %v", err)
	}
	want := time.Date(2025, 6, 1, 12, 30, 45, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("ParseCanalTime() = %v, want %v", got, want)
	}

	if _, err := ParseCanalTime("not-a-time"); err == nil {
		t.Error("ParseCanalTime() accepted invalid input")
	}
}
