package secret

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands `$VAR` and `${VAR}` in s.
//
// A braced `${VAR}` whose variable is unset is an error wrapping
// ErrMissingEnv that names every missing variable. `$$` emits a literal `$`.
func ExpandEnvStrict(s string) (string, error) {
	return expandEnvStrict(s, os.LookupEnv)
}

func expandEnvStrict(s string, lookup func(string) (string, bool)) (string, error) {
	const dollarSentinel = "\x00JSHOW_SECRET_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	var missing []string
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		key := match[1]
		if _, ok := lookup(key); !ok && !slices.Contains(missing, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	s = os.Expand(s, func(key string) string {
		v, _ := lookup(key)
		return v
	})
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
