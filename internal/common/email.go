package common

import "regexp"

var emailRegexp = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,64}$`)

// IsValidEmail reports whether addr is shaped like a deliverable address.
// It checks shape only, a false result is a normal outcome rather than an
// error. Gift card delivery depends on this address, so redemption requests
// carrying an invalid one are rejected before any points move.
func IsValidEmail(addr string) bool {
	return emailRegexp.MatchString(addr)
}
