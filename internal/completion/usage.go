package completion

import "github.com/tidwall/gjson"

// TotalTokens extracts usage.total_tokens from a completion response body.
// Missing, malformed or non-numeric values yield 0.
func TotalTokens(body []byte) int64 {
	if !gjson.ValidBytes(body) {
		return 0
	}
	result := gjson.GetBytes(body, "usage.total_tokens")
	if result.Type != gjson.Number {
		return 0
	}
	if n := result.Int(); n > 0 {
		return n
	}
	return 0
}
