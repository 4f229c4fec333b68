package localcache

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonicalise turns a workspace name into a directory-safe slug.
func Canonicalise(name string) (string, error) {
	str := regexp.MustCompile(`[^a-zA-Z0-9]+`).ReplaceAllString(name, " ")
	str = strings.ToLower(str)
	str = strings.Join(strings.Fields(str), "-")

	if len(str) > 101 {
		str = str[:100]
	}

	str = strings.Trim(str, "-")

	if len(str) < 2 {
		return "", fmt.Errorf("localcache: slug too short: name was '%s'", name)
	}

	return str, nil
}
