package pubsub

// MatchGlob reports whether name matches a Redis-style glob pattern:
// '*' matches any run of characters, '?' matches exactly one, and
// '[...]'/'[^...]' match a character class. No third-party glob
// matcher appears anywhere in the example pack, so this is hand-rolled
// against the stdlib; it is shared by channel-pattern subscriptions
// here and by the ACL key-glob grammar in internal/auth.
func MatchGlob(pattern, name string) bool {
	return matchGlob([]rune(pattern), []rune(name))
}

func matchGlob(pat, s []rune) bool {
	if len(pat) == 0 {
		return len(s) == 0
	}
	switch pat[0] {
	case '*':
		if matchGlob(pat[1:], s) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if matchGlob(pat[1:], s[i+1:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return matchGlob(pat[1:], s[1:])
	case '[':
		if len(s) == 0 {
			return false
		}
		end := indexRune(pat, ']')
		if end < 0 {
			return pat[0] == s[0] && matchGlob(pat[1:], s[1:])
		}
		class := pat[1:end]
		negate := len(class) > 0 && class[0] == '^'
		if negate {
			class = class[1:]
		}
		if classMatches(class, s[0]) != negate {
			return matchGlob(pat[end+1:], s[1:])
		}
		return false
	default:
		if len(s) == 0 || s[0] != pat[0] {
			return false
		}
		return matchGlob(pat[1:], s[1:])
	}
}

func classMatches(class []rune, c rune) bool {
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if c >= class[i] && c <= class[i+2] {
				return true
			}
			i += 2
			continue
		}
		if class[i] == c {
			return true
		}
	}
	return false
}

func indexRune(rs []rune, r rune) int {
	for i, c := range rs {
		if c == r {
			return i
		}
	}
	return -1
}
