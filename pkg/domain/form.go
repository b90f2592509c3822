package domain

import (
	"errors"
	"time"
)

type QuestionType string

const (
	QuestionType_ShortText   QuestionType = "short_text"
	QuestionType_LongText    QuestionType = "long_text"
	QuestionType_Email       QuestionType = "email"
	QuestionType_Number      QuestionType = "number"
	QuestionType_Date        QuestionType = "date"
	QuestionType_Select      QuestionType = "select"
	QuestionType_MultiSelect QuestionType = "multi_select"
	QuestionType_Boolean     QuestionType = "boolean"
	QuestionType_FileUpload  QuestionType = "file_upload"
)

type ResponseStatus string

const (
	ResponseStatus_InProgress ResponseStatus = "in_progress"
	ResponseStatus_Completed  ResponseStatus = "completed"
)

var (
	ErrFormNotFound     = errors.New("form not found")
	ErrResponseNotFound = errors.New("response not found")
)

type Form struct {
	ID        string
	OwnerID   string
	Title     string
	Questions []Question
	CreatedAt time.Time
}

type Question struct {
	ID   string
	Text string
	Type QuestionType
}

type Response struct {
	ID          string
	FormID      string
	Status      ResponseStatus
	Answers     []Answer
	SubmittedAt time.Time
}

// Answer values are already resolved: file-upload answers carry a retrievable
// URL, never inline bytes.
type Answer struct {
	QuestionID string
	Value      any
}

// AnswerEntry is one (question, value) pair of a completed response, in form
// question order.
type AnswerEntry struct {
	QuestionID   string
	QuestionText string
	QuestionType QuestionType
	Value        any
	Answered     bool
}

// AnswerSet is the read-only join of a response, its answers and the parent
// form's questions. It is derived fresh per dispatch and never stored.
type AnswerSet struct {
	Entries []AnswerEntry
}

// NewAnswerSet joins a form's questions with a response's answers, preserving
// question order. Unanswered questions appear with Answered=false so the
// mapping engine can apply its fallback chain.
func NewAnswerSet(form Form, response Response) AnswerSet {
	valuesByQuestionID := make(map[string]any, len(response.Answers))
	for _, answer := range response.Answers {
		valuesByQuestionID[answer.QuestionID] = answer.Value
	}

	entries := make([]AnswerEntry, 0, len(form.Questions))

	for _, question := range form.Questions {
		value, answered := valuesByQuestionID[question.ID]

		entries = append(entries, AnswerEntry{
			QuestionID:   question.ID,
			QuestionText: question.Text,
			QuestionType: question.Type,
			Value:        value,
			Answered:     answered,
		})
	}

	return AnswerSet{Entries: entries}
}

// Answered returns the entries that carry a value, in order.
func (s AnswerSet) Answered() []AnswerEntry {
	entries := make([]AnswerEntry, 0, len(s.Entries))

	for _, entry := range s.Entries {
		if entry.Answered {
			entries = append(entries, entry)
		}
	}

	return entries
}

// ByQuestionID looks up an entry by its question ID.
func (s AnswerSet) ByQuestionID(questionID string) (AnswerEntry, bool) {
	for _, entry := range s.Entries {
		if entry.QuestionID == questionID {
			return entry, true
		}
	}

	return AnswerEntry{}, false
}

// First returns the first entry of the set, answered or not.
func (s AnswerSet) First() (AnswerEntry, bool) {
	if len(s.Entries) == 0 {
		return AnswerEntry{}, false
	}

	return s.Entries[0], true
}
