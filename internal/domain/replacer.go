package domain

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/dictaphone-ai/medscribe/internal/models"
)

// Annotate finds every case-insensitive occurrence of a dictionary phrase in
// text and splices in a highlight span showing the display variant, with the
// original wording kept as the tooltip.
//
// Conflict policy (first-writer-wins by phrase length, then leftmost):
//  1. candidates are collected longest-phrase-first, so a short phrase that
//     is a substring of a longer one cannot pre-empt the longer match;
//  2. per phrase the scan is non-overlapping left-to-right (resumes after
//     each match end);
//  3. a candidate overlapping a span already claimed by an earlier (longer
//     or further-left) candidate is dropped, keeping the markup well-formed;
//  4. splices are applied rightmost-first so earlier splices never shift
//     the offsets of records still to be applied. Do not reorder.
func Annotate(text string, dictionary map[string]string) models.AnnotatedText {
	records := resolveOverlaps(collectCandidates(text, dictionary))

	// rightmost-first; for equal starts keep collection order (longer
	// phrase was collected first)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Start > records[j].Start
	})

	out := text
	for _, r := range records {
		out = out[:r.Start] + highlightSpan(r) + out[r.End:]
	}

	return models.AnnotatedText{HTML: out, Replacements: records}
}

// collectCandidates scans text once per dictionary phrase, longest phrase
// first, and returns every match as a record with offsets into text.
func collectCandidates(text string, dictionary map[string]string) []models.Replacement {
	normalized := make(map[string]string, len(dictionary))
	for phrase, displayAs := range dictionary {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" || strings.TrimSpace(displayAs) == "" {
			continue
		}
		normalized[p] = displayAs
	}

	phrases := make([]string, 0, len(normalized))
	for p := range normalized {
		phrases = append(phrases, p)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	var records []models.Replacement
	for _, phrase := range phrases {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
		for _, loc := range re.FindAllStringIndex(text, -1) {
			records = append(records, models.Replacement{
				Start:       loc[0],
				End:         loc[1],
				Original:    text[loc[0]:loc[1]],
				Replacement: normalized[phrase],
			})
		}
	}
	return records
}

// resolveOverlaps keeps candidates in arrival order (longest phrase first,
// then leftmost per phrase) and drops any whose span intersects one already
// accepted.
func resolveOverlaps(candidates []models.Replacement) []models.Replacement {
	var accepted []models.Replacement
	for _, c := range candidates {
		conflict := false
		for _, a := range accepted {
			if c.Start < a.End && a.Start < c.End {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

func highlightSpan(r models.Replacement) string {
	return `<span style="background-color: #fff3cd; padding: 0 2px; border-radius: 2px;" title="` +
		html.EscapeString(r.Original) + `">` + html.EscapeString(r.Replacement) + `</span>`
}
