package output

import (
	"fmt"
	"regexp"
	"strings"
)

// Registry tokens must never reach the user-visible stream.
var (
	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._~+/=-]+`)
	npmPattern    = regexp.MustCompile(`npm_[A-Za-z0-9]+`)
	authPattern   = regexp.MustCompile(`(_authToken=)[^\s&"]+`)
)

const redactedPlaceholder = "[redacted]"

// Redact replaces registry credentials embedded in s with a placeholder.
func Redact(s string) string {
	s = bearerPattern.ReplaceAllString(s, "${1}"+redactedPlaceholder)
	s = npmPattern.ReplaceAllString(s, redactedPlaceholder)
	s = authPattern.ReplaceAllString(s, "${1}"+redactedPlaceholder)
	return s
}

// redactKeyvals redacts string values and keys that look like secrets.
func redactKeyvals(keyvals []interface{}) []interface{} {
	out := make([]interface{}, len(keyvals))
	copy(out, keyvals)
	for i := 0; i < len(out)-1; i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if isSecretKey(key) {
			out[i+1] = redactedPlaceholder
			continue
		}
		switch v := out[i+1].(type) {
		case string:
			out[i+1] = Redact(v)
		case error:
			out[i+1] = Redact(v.Error())
		case fmt.Stringer:
			out[i+1] = Redact(v.String())
		}
	}
	return out
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "token") ||
		strings.Contains(lower, "password") ||
		strings.Contains(lower, "secret")
}
