package textanalysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesnouvelles-feed/internal/domain/entity"
)

func TestNormalizeTags(t *testing.T) {
	in := []entity.Tag{
		{Text: "▁Montréal", Label: "I-LOC"},
		{Text: " Hydro-Québec ", Label: "b-org"},
		{Text: "Montréal", Label: "LOC"},
		{Text: "", Label: "PER"},
		{Text: "Legault", Label: ""},
		{Text: "Legault", Label: "PER"},
		{Text: "X-Men", Label: "MISC"},
	}

	assert.Equal(t, []entity.Tag{
		{Text: "Montréal", Label: "LOC"},
		{Text: "Hydro-Québec", Label: "ORG"},
		{Text: "Legault", Label: "PER"},
		{Text: "X-Men", Label: "MISC"},
	}, normalizeTags(in))
}

func TestParseEntities(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    []entity.Tag
		wantErr bool
	}{
		{
			name:   "bare array",
			answer: `[{"text":"Ottawa","label":"LOC"}]`,
			want:   []entity.Tag{{Text: "Ottawa", Label: "LOC"}},
		},
		{
			name:   "fenced with prose",
			answer: "Voici:\n```json\n[{\"text\":\"Radio-Canada\",\"label\":\"org\"}]\n```",
			want:   []entity.Tag{{Text: "Radio-Canada", Label: "ORG"}},
		},
		{
			name:   "empty array",
			answer: "[]",
			want:   []entity.Tag{},
		},
		{
			name:    "no array",
			answer:  "I could not find entities.",
			wantErr: true,
		},
		{
			name:    "invalid json",
			answer:  `[{"text": "Laval",}]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEntities(tt.answer)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClip(t *testing.T) {
	short := "Bonjour"
	assert.Equal(t, short, clip(short))

	long := strings.Repeat("é", maxInputRunes+10)
	assert.Equal(t, maxInputRunes, len([]rune(clip(long))))
}
