package invoke

import "strings"

const fence = "```"

// StripFence removes one Markdown code fence wrapped around model output.
// Output that does not start with a fence is returned trimmed. The opening
// fence may carry a language tag ("```json") or none, and the closing fence
// may sit on the same line as the content.
func StripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, fence) {
		return t
	}
	body := t[len(fence):]

	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		body = strings.TrimSpace(strings.TrimSuffix(body, fence))
		// "```json {...}```": drop the tag only when real content follows.
		if j := strings.IndexAny(body, "{["); j > 0 && isFenceTag(strings.TrimSpace(body[:j])) {
			body = body[j:]
		}
		return strings.TrimSpace(body)
	}

	if isFenceTag(strings.TrimSpace(body[:nl])) {
		body = body[nl+1:]
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, fence)
	return strings.TrimSpace(body)
}

// isFenceTag reports whether s can be the info string of an opening fence.
func isFenceTag(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '+', r == '.':
		default:
			return false
		}
	}
	return true
}
