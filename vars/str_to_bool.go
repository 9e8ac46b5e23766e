package vars

import "strings"

// StrToBool parses flag and config style booleans. Unknown strings are false.
func StrToBool(str string) bool {
	str = strings.ToLower(strings.TrimSpace(str))
	switch str {
	case "true", "t", "yes", "y", "on", "1":
		return true
	}
	return false
}
