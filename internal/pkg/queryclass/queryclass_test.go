package queryclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query  string
		intent string
	}{
		{"buy running shoes", "transactional"},
		{"seo tools pricing", "transactional"},
		{"coffee shops near me", "local"},
		{"ahrefs vs semrush", "commercial"},
		{"best seo tools", "commercial"},
		{"how to improve seo", "question"},
		{"what is a backlink", "question"},
		{"google search console login", "navigational"},
		{"example.com", "navigational"},
		{"seo pulse", IntentInformational},
		{"", IntentInformational},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.intent, Classify(tt.query))
		})
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "transactional", Classify("BUY Running Shoes"))
	assert.Equal(t, "question", Classify("How To Improve SEO"))
}
