package models

// PhraseEntry is one row of the phrase dictionary: a medical term or
// abbreviation and the string it should be displayed as.
type PhraseEntry struct {
	Phrase    string `db:"phrase" json:"phrase"`
	DisplayAs string `db:"display_as" json:"displayAs"`
}
