package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys are the valid top-level keys in the settings file.
var knownKeys = map[string]bool{
	"credentials_file": true, "credential_store": true, "keyring_account": true, "grant": true,
	"log_level":    true,
	"http_timeout": true, "user_agent": true,
}

// knownKeysList is knownKeys sorted, so ties in edit distance resolve the
// same way every time.
var knownKeysList = func() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	var errs []error

	// Report a table once, by its top-level name.
	seen := make(map[string]bool)

	for _, key := range md.Undecoded() {
		if len(key) == 0 || seen[key[0]] {
			continue
		}

		seen[key[0]] = true
		errs = append(errs, unknownKeyError(key[0]))
	}

	return errors.Join(errs...)
}

func unknownKeyError(name string) error {
	if suggestion := closestMatch(name, knownKeysList); suggestion != "" {
		return fmt.Errorf("unknown config key %q, did you mean %q?", name, suggestion)
	}

	return fmt.Errorf("unknown config key %q", name)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		if d := levenshtein(unknown, k); d < bestDist {
			bestDist = d
			best = k
		}
	}

	return best
}

// levenshtein computes the edit distance between two strings using a
// single-row buffer pair.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
