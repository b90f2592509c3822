package mapping

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func answerSet(entries ...domain.AnswerEntry) domain.AnswerSet {
	return domain.AnswerSet{Entries: entries}
}

func answered(questionID, text string, value any) domain.AnswerEntry {
	return domain.AnswerEntry{
		QuestionID:   questionID,
		QuestionText: text,
		Value:        value,
		Answered:     true,
	}
}

func unanswered(questionID, text string) domain.AnswerEntry {
	return domain.AnswerEntry{
		QuestionID:   questionID,
		QuestionText: text,
	}
}

func TestMapFields_HeuristicMode(t *testing.T) {
	engine := NewEngine()

	schema := []domain.FieldSchema{
		{Name: "Name", Type: domain.FieldType_Title, Primary: true},
		{Name: "Email", Type: domain.FieldType_RichText},
		{Name: "Age", Type: domain.FieldType_Number},
	}

	t.Run("matches by case-insensitive question text equality", func(t *testing.T) {
		answers := answerSet(
			answered("q1", "Name", "Jane"),
			answered("q2", "What is your Email?", "jane@x.com"),
			answered("q3", "email", "jane@y.com"),
			answered("q4", "age", "30"),
		)

		fields := engine.MapFields(answers, nil, schema, submittedAt)

		// "What is your Email?" is not literally "Email", so only the exact
		// (case-insensitive) match binds.
		assert.Equal(t, "jane@y.com", fields["Email"])
		assert.Equal(t, float64(30), fields["Age"])
	})

	t.Run("near-miss question text never binds", func(t *testing.T) {
		answers := answerSet(
			answered("q1", "Name", "Jane"),
			answered("q2", "What is your Email?", "jane@x.com"),
		)

		fields := engine.MapFields(answers, nil, schema, submittedAt)

		_, ok := fields["Email"]
		assert.False(t, ok)
	})

	t.Run("first question fills primary regardless of name match", func(t *testing.T) {
		answers := answerSet(
			answered("q1", "Anything at all", "Jane"),
		)

		fields := engine.MapFields(answers, nil, schema, submittedAt)

		assert.Equal(t, "Jane", fields["Name"])
	})
}

func TestMapFields_ExplicitMode(t *testing.T) {
	engine := NewEngine()

	schema := []domain.FieldSchema{
		{ID: "f1", Name: "Title", Type: domain.FieldType_Title, Primary: true},
		{ID: "f2", Name: "Contact", Type: domain.FieldType_RichText},
	}

	fieldMapping := &domain.FieldMapping{
		Entries: []domain.FieldMappingEntry{
			{SourceQuestionID: "q2", DestinationFieldID: "f1"},
			{SourceQuestionID: "q1", DestinationFieldID: "f2"},
		},
	}

	t.Run("maps each pair and omits absent answers", func(t *testing.T) {
		answers := answerSet(
			answered("q1", "Email", "jane@x.com"),
			answered("q2", "Name", "Jane"),
		)

		fields := engine.MapFields(answers, fieldMapping, schema, submittedAt)

		assert.Equal(t, "Jane", fields["f1"])
		assert.Equal(t, "jane@x.com", fields["f2"])
	})

	t.Run("unmapped questions are omitted", func(t *testing.T) {
		mapping := &domain.FieldMapping{
			Entries: []domain.FieldMappingEntry{
				{SourceQuestionID: "q1", DestinationFieldID: "f2"},
			},
		}

		answers := answerSet(
			answered("q1", "Email", "jane@x.com"),
			answered("q2", "Name", "Jane"),
		)

		fields := engine.MapFields(answers, mapping, schema, submittedAt)

		assert.Equal(t, "jane@x.com", fields["f2"])
		// Primary falls back to the first question's answer.
		assert.Equal(t, "jane@x.com", fields["f1"])
	})
}

func TestMapFields_TitleFallbackChain(t *testing.T) {
	engine := NewEngine()

	schema := []domain.FieldSchema{
		{ID: "f1", Name: "Title", Type: domain.FieldType_Title, Primary: true},
	}

	fieldMapping := &domain.FieldMapping{
		Entries: []domain.FieldMappingEntry{
			{SourceQuestionID: "q2", DestinationFieldID: "f1"},
		},
	}

	t.Run("mapped title question unanswered falls back to first answer", func(t *testing.T) {
		answers := answerSet(
			answered("q1", "Email", "jane@x.com"),
			unanswered("q2", "Name"),
		)

		fields := engine.MapFields(answers, fieldMapping, schema, submittedAt)

		assert.Equal(t, "jane@x.com", fields["f1"])
	})

	t.Run("no answers at all generates a literal", func(t *testing.T) {
		answers := answerSet(
			unanswered("q1", "Email"),
			unanswered("q2", "Name"),
		)

		fields := engine.MapFields(answers, fieldMapping, schema, submittedAt)

		assert.Equal(t, "Response from 2025-06-01T12:00:00Z", fields["f1"])
	})

	t.Run("primary is always present", func(t *testing.T) {
		fields := engine.MapFields(answerSet(), nil, schema, submittedAt)

		require.Contains(t, fields, "f1")
	})
}

func TestMapFields_Purity(t *testing.T) {
	engine := NewEngine()

	schema := []domain.FieldSchema{
		{Name: "Name", Type: domain.FieldType_Title, Primary: true},
		{Name: "Tags", Type: domain.FieldType_MultiSelect},
	}

	answers := answerSet(
		answered("q1", "Name", "Jane"),
		answered("q2", "Tags", "a, b, c"),
	)

	first := engine.MapFields(answers, nil, schema, submittedAt)
	second := engine.MapFields(answers, nil, schema, submittedAt)

	assert.Equal(t, first, second)
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name      string
		fieldType domain.FieldType
		value     any
		expected  any
		ok        bool
	}{
		{
			name:      "number from numeric string",
			fieldType: domain.FieldType_Number,
			value:     "42.5",
			expected:  42.5,
			ok:        true,
		},
		{
			name:      "number from garbage string omitted",
			fieldType: domain.FieldType_Number,
			value:     "abc",
			ok:        false,
		},
		{
			name:      "number from float",
			fieldType: domain.FieldType_Number,
			value:     float64(7),
			expected:  float64(7),
			ok:        true,
		},
		{
			name:      "select requires plain string",
			fieldType: domain.FieldType_Select,
			value:     42,
			ok:        false,
		},
		{
			name:      "select from string",
			fieldType: domain.FieldType_Select,
			value:     "Option A",
			expected:  "Option A",
			ok:        true,
		},
		{
			name:      "multi select from comma delimited string",
			fieldType: domain.FieldType_MultiSelect,
			value:     "red, green ,blue",
			expected:  []string{"red", "green", "blue"},
			ok:        true,
		},
		{
			name:      "multi select from string slice",
			fieldType: domain.FieldType_MultiSelect,
			value:     []string{"x", "y"},
			expected:  []string{"x", "y"},
			ok:        true,
		},
		{
			name:      "multi select from any slice",
			fieldType: domain.FieldType_MultiSelect,
			value:     []any{"x", "y"},
			expected:  []string{"x", "y"},
			ok:        true,
		},
		{
			name:      "date from iso string",
			fieldType: domain.FieldType_Date,
			value:     "2025-06-01",
			expected:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			ok:        true,
		},
		{
			name:      "date from garbage omitted",
			fieldType: domain.FieldType_Date,
			value:     "not a date",
			ok:        false,
		},
		{
			name:      "checkbox truthy string",
			fieldType: domain.FieldType_Checkbox,
			value:     "yes",
			expected:  true,
			ok:        true,
		},
		{
			name:      "checkbox empty string is false",
			fieldType: domain.FieldType_Checkbox,
			value:     "",
			expected:  false,
			ok:        true,
		},
		{
			name:      "checkbox bool passes through",
			fieldType: domain.FieldType_Checkbox,
			value:     false,
			expected:  false,
			ok:        true,
		},
		{
			name:      "unknown field type skipped",
			fieldType: domain.FieldType("formula"),
			value:     "anything",
			ok:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := CoerceValue(tt.fieldType, tt.value)

			require.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.expected, value)
			}
		})
	}
}

func TestCoerceValue_RichTextTruncation(t *testing.T) {
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'a'
	}

	value, ok := CoerceValue(domain.FieldType_RichText, string(long))

	require.True(t, ok)
	assert.Len(t, value, 2000)
}

func TestCoerceValue_TruncationKeepsRunesIntact(t *testing.T) {
	// 3 bytes per rune, so the 2000-byte limit lands mid-rune.
	long := strings.Repeat("世", 1500)

	value, ok := CoerceValue(domain.FieldType_RichText, long)

	require.True(t, ok)

	truncated, isString := value.(string)
	require.True(t, isString)

	assert.True(t, utf8.ValidString(truncated))
	assert.LessOrEqual(t, len(truncated), 2000)
	assert.True(t, strings.HasPrefix(long, truncated))
}

func TestMapFields_BadFieldNeverAbortsRecord(t *testing.T) {
	engine := NewEngine()

	schema := []domain.FieldSchema{
		{Name: "Name", Type: domain.FieldType_Title, Primary: true},
		{Name: "Age", Type: domain.FieldType_Number},
		{Name: "City", Type: domain.FieldType_RichText},
	}

	answers := answerSet(
		answered("q1", "Name", "Jane"),
		answered("q2", "Age", "not a number"),
		answered("q3", "City", "Lisbon"),
	)

	fields := engine.MapFields(answers, nil, schema, submittedAt)

	_, hasAge := fields["Age"]
	assert.False(t, hasAge)
	assert.Equal(t, "Jane", fields["Name"])
	assert.Equal(t, "Lisbon", fields["City"])
}
