package validate

import (
	"regexp"
	"strings"
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	symbolPattern  = regexp.MustCompile(`^[A-Za-z0-9]{1,11}$`)
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Address reports whether value is a 20-byte hex EVM address.
func Address(value string) bool {
	return addressPattern.MatchString(strings.TrimSpace(value))
}

func TxHash(value string) bool {
	return txHashPattern.MatchString(strings.TrimSpace(value))
}

func Symbol(value string) bool {
	return symbolPattern.MatchString(strings.TrimSpace(value))
}

func MaxLen(value string, n int) bool {
	return len([]rune(value)) <= n
}
