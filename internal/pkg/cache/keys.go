package cache

import "strconv"

// Key layout is shared with external consumers of the same Redis instance
// and must not change.

// SmsCodeKey is the one-time-code entry for a mobile number.
func SmsCodeKey(mobile string) string {
	return "sms:code:" + mobile
}

// UserTokenKey is the live-session entry for a user. It is the authority
// for whether a token is still valid, regardless of the token's own expiry.
func UserTokenKey(userID int64) string {
	return "user:token:" + strconv.FormatInt(userID, 10)
}
