package store

import "strconv"

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
