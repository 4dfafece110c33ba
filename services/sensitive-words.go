package services

import (
	"os"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const DefaultBannedWordsPath = "data/banned-words.txt"

// WordList is the banned-word list read from a line-delimited file on first use.
// The list never changes afterwards, even if the file does.
type WordList struct {
	path  string
	log   *zap.Logger
	once  sync.Once
	words []string
}

func NewWordList(path string, log *zap.Logger) *WordList {
	if path == "" {
		path = DefaultBannedWordsPath
	}
	return &WordList{path: path, log: log}
}

func (l *WordList) Path() string {
	return l.path
}

// Words returns a copy of the cached list, loading it on the first call.
func (l *WordList) Words() []string {
	return slices.Clone(l.cached())
}

func (l *WordList) cached() []string {
	l.once.Do(func() {
		l.words = l.load()
	})
	return l.words
}

func (l *WordList) load() []string {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		l.log.Warn("Banned words are unavailable, content filter passes everything",
			zap.String("path", l.path), zap.Error(err))
		return []string{}
	}
	words := ParseWords(string(raw))
	l.log.Info("Loaded banned words", zap.String("path", l.path), zap.Int("count", len(words)))
	return words
}

// ParseWords splits raw into trimmed terms, skipping blank lines and # comments.
func ParseWords(raw string) []string {
	words := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}
