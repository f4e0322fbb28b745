// Package queryclass classifies search queries by intent. Classification is
// pattern-based: an embedded database of PCRE regexes is checked in order and
// the first match wins.
package queryclass

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

// IntentInformational is the fallback for queries no pattern matches.
const IntentInformational = "informational"

// Embed the database files
//
//go:embed database/intents.yml
var databaseFiles embed.FS

// Intent entry structure
type IntentEntry struct {
	Regex  string `yaml:"regex"`
	Intent string `yaml:"intent"`
}

// Compiled regex cache
type RegexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func newRegexCache() *RegexCache {
	return &RegexCache{
		compiled: make(map[string]*pcre.Regexp),
	}
}

func (rc *RegexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if regex, exists := rc.compiled[pattern]; exists {
		rc.mutex.RUnlock()
		return regex, nil
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	// Double-check pattern
	if regex, exists := rc.compiled[pattern]; exists {
		return regex, nil
	}

	regex, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rc.compiled[pattern] = regex
	return regex, nil
}

// Global classifier instance
var (
	classifier *intentClassifier
	once       sync.Once
)

type intentClassifier struct {
	intents    []IntentEntry
	regexCache *RegexCache
}

func getClassifier() *intentClassifier {
	once.Do(func() {
		classifier = &intentClassifier{
			regexCache: newRegexCache(),
		}

		// Load intents
		if data, err := databaseFiles.ReadFile("database/intents.yml"); err == nil {
			if err := yaml.Unmarshal(data, &classifier.intents); err != nil {
				fmt.Printf("Error parsing intents.yml: %v\n", err)
			}
		}
	})
	return classifier
}

// Classify returns the intent of a search query. Matching is case-insensitive
// and falls back to IntentInformational when no pattern matches.
func Classify(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return IntentInformational
	}

	c := getClassifier()
	for _, entry := range c.intents {
		regex, err := c.regexCache.get(entry.Regex)
		if err != nil {
			continue
		}
		if regex.MatchString(query) {
			return entry.Intent
		}
	}
	return IntentInformational
}
