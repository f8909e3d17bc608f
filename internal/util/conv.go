package util

import (
	"strconv"
)

// ParseLimit 解析分页条数，非法时返回 def，超过 max 时截断
func ParseLimit(s string, def, max int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
