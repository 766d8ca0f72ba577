package textanalysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"lesnouvelles-feed/internal/domain/entity"
)

// maxInputRunes bounds the text sent to hosted models.
const maxInputRunes = 10000

// entityInstruction asks a chat model for CoNLL-style entities as JSON.
const entityInstruction = `Extract the named entities from the user's text.
Answer with a JSON array only, no prose, where each element is
{"text": "<entity as written>", "label": "<PER|LOC|ORG|MISC>"}.
Answer [] when there is none.`

// normalizeTags trims entity text, strips BIO prefixes and the sentencepiece
// word marker, upper-cases labels and drops empty or repeated entries.
func normalizeTags(tags []entity.Tag) []entity.Tag {
	out := make([]entity.Tag, 0, len(tags))
	seen := make(map[entity.Tag]struct{}, len(tags))
	for _, t := range tags {
		text := strings.TrimSpace(strings.TrimLeft(t.Text, "▁"))
		label := strings.ToUpper(strings.TrimSpace(t.Label))
		if i := strings.IndexByte(label, '-'); i == 1 && (label[0] == 'B' || label[0] == 'I') {
			label = label[2:]
		}
		if text == "" || label == "" {
			continue
		}
		tag := entity.Tag{Text: text, Label: label}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// parseEntities decodes the JSON array a chat model returned for
// entityInstruction. Code fences and surrounding prose are tolerated.
func parseEntities(answer string) ([]entity.Tag, error) {
	start := strings.IndexByte(answer, '[')
	end := strings.LastIndexByte(answer, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in answer", ErrMalformedResponse)
	}
	var tags []entity.Tag
	if err := json.Unmarshal([]byte(answer[start:end+1]), &tags); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return normalizeTags(tags), nil
}

// clip cuts text to maxInputRunes.
func clip(text string) string {
	runes := []rune(text)
	if len(runes) <= maxInputRunes {
		return text
	}
	return string(runes[:maxInputRunes])
}
