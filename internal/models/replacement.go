package models

// Replacement records one dictionary substitution applied to a text.
// Start/End are half-open byte offsets into the ORIGINAL input, never into
// the spliced output: for every record input[Start:End] == Original.
type Replacement struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// AnnotatedText is the result of one replacement pass: the spliced HTML and
// the audit trail of records, ordered by descending Start (the order they
// were applied in).
type AnnotatedText struct {
	HTML         string        `json:"html"`
	Replacements []Replacement `json:"replacements"`
}
