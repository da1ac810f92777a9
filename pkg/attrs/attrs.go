// Package attrs reads values back out of slog-style attribute slices.
// The audit path logs an operation once and then lifts the fields it
// needs into the audit event from the same attribute list, so log and
// event can never disagree.
package attrs

// ExtractString returns the string value following key in a
// [key1, value1, key2, value2, ...] slice. A missing key, an odd
// trailing element, or a non-string value all yield "".
func ExtractString(kv []any, key string) string {
	for len(kv) >= 2 {
		k, v := kv[0], kv[1]
		kv = kv[2:]
		if k != key {
			continue
		}
		s, _ := v.(string)
		return s
	}
	return ""
}
