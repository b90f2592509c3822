package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/formtalk/formtalk/pkg/domain"
)

const maxTextLength = 2000

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Engine shapes an ordered answer set into a destination-shaped field map.
// It is a pure function of its inputs: identical inputs always produce
// identical payloads.
type Engine struct{}

func NewEngine() Engine {
	return Engine{}
}

// MapFields produces the field map for one destination schema. With an
// explicit field mapping, each mapped (question, field) pair is resolved and
// coerced; without one, fields are matched heuristically by case-insensitive
// equality between question text and field display name. The primary field is
// always populated: by its mapped or first question's answer, or by a
// generated "Response from <timestamp>" literal.
//
// A field whose value fails coercion is dropped; a bad field never aborts the
// whole record.
func (e Engine) MapFields(answers domain.AnswerSet, fieldMapping *domain.FieldMapping, schema []domain.FieldSchema, submittedAt time.Time) map[string]any {
	fields := make(map[string]any)

	primary, hasPrimary := primaryField(schema)

	if fieldMapping != nil {
		e.applyExplicit(fields, answers, fieldMapping, schema)
	} else {
		e.applyHeuristic(fields, answers, schema)
	}

	if !hasPrimary {
		return fields
	}

	if _, ok := fields[primary.Key()]; !ok {
		fields[primary.Key()] = primaryFallback(answers, submittedAt)
	}

	return fields
}

func (e Engine) applyExplicit(fields map[string]any, answers domain.AnswerSet, fieldMapping *domain.FieldMapping, schema []domain.FieldSchema) {
	for _, entry := range fieldMapping.Entries {
		field, ok := findField(schema, entry)
		if !ok {
			continue
		}

		answer, ok := answers.ByQuestionID(entry.SourceQuestionID)
		if !ok || !answer.Answered {
			continue
		}

		if value, ok := CoerceValue(field.Type, answer.Value); ok {
			fields[field.Key()] = value
		}
	}
}

func (e Engine) applyHeuristic(fields map[string]any, answers domain.AnswerSet, schema []domain.FieldSchema) {
	primary, hasPrimary := primaryField(schema)

	if hasPrimary {
		if first, ok := answers.First(); ok && first.Answered {
			if value, ok := CoerceValue(primary.Type, first.Value); ok {
				fields[primary.Key()] = value
			}
		}
	}

	for _, field := range schema {
		if hasPrimary && field.Key() == primary.Key() {
			continue
		}

		for _, entry := range answers.Answered() {
			if !strings.EqualFold(entry.QuestionText, field.Name) {
				continue
			}

			if value, ok := CoerceValue(field.Type, entry.Value); ok {
				fields[field.Key()] = value
			}

			break
		}
	}
}

func primaryField(schema []domain.FieldSchema) (domain.FieldSchema, bool) {
	for _, field := range schema {
		if field.Primary || field.Type == domain.FieldType_Title {
			return field, true
		}
	}

	return domain.FieldSchema{}, false
}

func findField(schema []domain.FieldSchema, entry domain.FieldMappingEntry) (domain.FieldSchema, bool) {
	for _, field := range schema {
		if entry.DestinationFieldID != "" && field.ID == entry.DestinationFieldID {
			return field, true
		}

		if entry.DestinationFieldName != "" && strings.EqualFold(field.Name, entry.DestinationFieldName) {
			return field, true
		}
	}

	return domain.FieldSchema{}, false
}

func primaryFallback(answers domain.AnswerSet, submittedAt time.Time) string {
	if first, ok := answers.First(); ok && first.Answered {
		return truncate(FormatValue(first.Value), maxTextLength)
	}

	return "Response from " + submittedAt.UTC().Format(time.RFC3339)
}

// CoerceValue converts a raw answer value to the declared destination field
// type. The second return value is false when the value cannot represent the
// type, in which case the field is omitted.
func CoerceValue(fieldType domain.FieldType, value any) (any, bool) {
	switch fieldType {
	case domain.FieldType_Title, domain.FieldType_RichText:
		return truncate(FormatValue(value), maxTextLength), true

	case domain.FieldType_Number:
		return coerceNumber(value)

	case domain.FieldType_Select:
		raw, ok := value.(string)
		if !ok {
			return nil, false
		}

		return raw, true

	case domain.FieldType_MultiSelect:
		return coerceMultiSelect(value)

	case domain.FieldType_Date:
		return coerceDate(value)

	case domain.FieldType_Checkbox:
		return coerceTruthy(value), true

	default:
		return nil, false
	}
}

func coerceNumber(value any) (any, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return nil, false
		}

		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) {
			return nil, false
		}

		return parsed, true
	default:
		return nil, false
	}
}

func coerceMultiSelect(value any) (any, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		values := make([]string, 0, len(v))

		for _, item := range v {
			raw, ok := item.(string)
			if !ok {
				return nil, false
			}

			values = append(values, raw)
		}

		return values, true
	case string:
		parts := strings.Split(v, ",")
		values := make([]string, 0, len(parts))

		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}

		if len(values) == 0 {
			return nil, false
		}

		return values, true
	default:
		return nil, false
	}
}

func coerceDate(value any) (any, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return parsed, true
			}
		}

		return nil, false
	default:
		return nil, false
	}
}

func coerceTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}

// FormatValue renders an answer value for text-shaped targets.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatValue(item))
		}

		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}

	return s[:max]
}
