package mysql

import "unicode/utf8"

const maxErrorLen = 1024

// truncate memotong pesan error supaya muat di kolom last_error
func truncate(s string) string {
	if len(s) <= maxErrorLen {
		return s
	}
	s = s[:maxErrorLen]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
