package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Local parts of two characters or fewer are fully masked.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || strings.Count(email, "@") != 1 {
		return "***@***"
	}
	name, domain := email[:at], email[at+1:]
	if len(name) > 2 {
		return name[:2] + "***@" + domain
	}
	return "***@" + domain
}
