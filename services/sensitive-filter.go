package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrContentRejected = errors.New("content rejected")

// ContentRejectedError names the field that carried a banned word.
// Word is kept for the audit log and is not part of the message.
type ContentRejectedError struct {
	Field string
	Word  string
}

func (e *ContentRejectedError) Error() string {
	return fmt.Sprintf("%s contains a word that is not allowed, please correct it and try again", e.Field)
}

func (e *ContentRejectedError) Is(target error) bool {
	return target == ErrContentRejected
}

// bannedWords hands out the loaded list without copying. Callers must not modify it.
type bannedWords interface {
	cached() []string
}

type SensitiveFilter struct {
	words bannedWords
}

func NewSensitiveFilter(words bannedWords) *SensitiveFilter {
	return &SensitiveFilter{words: words}
}

// DetectMatch reports the first banned word contained in text.
func (f *SensitiveFilter) DetectMatch(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, word := range f.words.cached() {
		if strings.Contains(text, word) {
			return word, true
		}
	}
	return "", false
}

func (f *SensitiveFilter) AssertSafe(field, text string) error {
	if word, found := f.DetectMatch(text); found {
		return &ContentRejectedError{Field: field, Word: word}
	}
	return nil
}

type Field struct {
	Name string
	Text string
}

// AssertFields stops at the first rejected field.
func (f *SensitiveFilter) AssertFields(fields ...Field) error {
	for _, field := range fields {
		if err := f.AssertSafe(field.Name, field.Text); err != nil {
			return err
		}
	}
	return nil
}

type auditRecorder interface {
	Record(ctx context.Context, actorID, kind, subject, detail string)
}

// contentGuard screens user text and leaves a trace of every rejection in the audit log.
type contentGuard struct {
	filter *SensitiveFilter
	audit  auditRecorder
}

func (g contentGuard) check(ctx context.Context, actorID, subject string, fields ...Field) error {
	err := g.filter.AssertFields(fields...)
	var rejected *ContentRejectedError
	if errors.As(err, &rejected) {
		g.audit.Record(ctx, actorID, AuditContentRejected, subject, rejected.Field+": "+rejected.Word)
	}
	return err
}
