package models

// RevisionContent is the structured payload stored in the
// document_revisions.content column, serialized as JSON.
type RevisionContent struct {
	Metadata   []LabelValue `json:"metadata"`
	PageImages []string     `json:"page_images"`
}

// LabelValue is one metadata entry. Both the label and the values are
// wrapped per language code so translated views can be added later
// without a schema change; the import pipeline only ever emits "en".
type LabelValue struct {
	Label map[string]string   `json:"label"`
	Value map[string][]string `json:"value"`
}

func MakeLabelValue(label string, values []string, lang string) LabelValue {
	return LabelValue{
		Label: map[string]string{lang: label},
		Value: map[string][]string{lang: values},
	}
}
