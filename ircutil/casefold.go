package ircutil

// Casefold normalizes a nickname or channel name for use as a table key.
//
// The source this library is modeled on case-folds ASCII-insensitively and
// does not apply RFC-1459's extra folding of {}|^ onto []\~. That decision
// is kept deliberately: switching to RFC-1459 folding would change the keys
// every table lookup depends on. Only the ASCII letters A-Z are folded;
// every other byte is left unchanged.
func Casefold(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// EqualFold reports whether a and b are equal under Casefold.
func EqualFold(a, b string) bool {
	return Casefold(a) == Casefold(b)
}
