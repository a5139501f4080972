package env

import (
	"net/url"
	"strings"
)

// RedactToken masks a token, keeping the first and last four
// characters when it is long enough to do so safely.
func RedactToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// RedactURL masks the password of a URL's user info.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	if password, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), RedactToken(password))
	}
	return u.String()
}
