package observability

import (
	"regexp"
	"strings"
)

// Redactor handles sensitive data masking in logs. Raw credentials must
// never reach log output; status reporting uses fingerprints instead.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
	name        string
}

// NewRedactor creates a new redactor with default patterns.
func NewRedactor() *Redactor {
	r := &Redactor{}
	r.addDefaultPatterns()
	return r
}

func (r *Redactor) addDefaultPatterns() {
	// Provider API keys
	r.AddPattern(`gsk_[a-zA-Z0-9]{20,}`, "[REDACTED_GROQ_KEY]", "groq_key")
	r.AddPattern(`nvapi-[a-zA-Z0-9\-_]{20,}`, "[REDACTED_NVIDIA_KEY]", "nvidia_key")
	r.AddPattern(`AIza[a-zA-Z0-9\-_]{35}`, "[REDACTED_GOOGLE_KEY]", "google_key")
	r.AddPattern(`sk-[a-zA-Z0-9\-_]{20,}`, "[REDACTED_API_KEY]", "sk_key")
	// ZhipuAI keys are "<32 hex>.<secret>"; the hex prefix alone is
	// enough to identify the account
	r.AddPattern(`[a-f0-9]{32}`, "[REDACTED_API_KEY]", "generic_api_key")

	// Bearer tokens and auth headers
	r.AddPattern(`Bearer\s+[a-zA-Z0-9\-_\.]+`, "Bearer [REDACTED]", "bearer_token")
	r.AddPattern(`Authorization:\s*[^\s]+`, "Authorization: [REDACTED]", "auth_header")

	// GitHub tokens used by the gist state backend
	r.AddPattern(`gh[pousr]_[a-zA-Z0-9]{20,}`, "[REDACTED_GITHUB_TOKEN]", "github_token")
}

// AddPattern adds a custom redaction pattern.
func (r *Redactor) AddPattern(pattern, replacement, name string) {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return // Skip invalid patterns
	}
	r.patterns = append(r.patterns, &redactPattern{
		regex:       regex,
		replacement: replacement,
		name:        name,
	})
}

// Redact applies all redaction patterns to the input string.
func (r *Redactor) Redact(input string) string {
	result := input
	for _, p := range r.patterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}
	return result
}

// RedactHeaders redacts sensitive HTTP headers.
func (r *Redactor) RedactHeaders(headers map[string][]string) map[string][]string {
	sensitiveHeaders := map[string]bool{
		"authorization":  true,
		"x-api-key":      true,
		"api-key":        true,
		"x-goog-api-key": true,
		"x-auth-token":   true,
		"cookie":         true,
		"set-cookie":     true,
	}

	result := make(map[string][]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			result[k] = []string{"[REDACTED]"}
		} else {
			result[k] = v
		}
	}
	return result
}
