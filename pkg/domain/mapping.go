package domain

type FieldType string

const (
	FieldType_Title       FieldType = "title"
	FieldType_RichText    FieldType = "rich_text"
	FieldType_Number      FieldType = "number"
	FieldType_Select      FieldType = "select"
	FieldType_MultiSelect FieldType = "multi_select"
	FieldType_Date        FieldType = "date"
	FieldType_Checkbox    FieldType = "checkbox"
)

// FieldSchema describes one field of a destination record. Exactly one field
// per destination schema is the primary/title field.
type FieldSchema struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Primary bool      `json:"primary"`
}

// Key is the identifier the shaped payload is keyed by: the destination field
// ID when the destination has stable field IDs, otherwise the display name.
func (s FieldSchema) Key() string {
	if s.ID != "" {
		return s.ID
	}

	return s.Name
}

// FieldMapping is an explicit per-form, per-destination-type assignment of
// questions to destination fields. Its absence puts the mapping engine in
// heuristic mode.
type FieldMapping struct {
	FormID          string
	DestinationType DestinationType
	Entries         []FieldMappingEntry
}

type FieldMappingEntry struct {
	SourceQuestionID     string `json:"source_question_id"`
	DestinationFieldID   string `json:"destination_field_id"`
	DestinationFieldName string `json:"destination_field_name"`
}
