package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty", "", nil},
		{"blank", "   \t ", nil},
		{"lowercase", "Sample Dataset", []string{"sample", "dataset"}},
		{"diacritics", "Canción Ñandú", []string{"cancion", "nandu"}},
		{"punctuation", `¿"Feature" (model)? [v1.0]; ok!`, []string{"feature", "model", "v10", "ok"}},
		{"colon and quote", "doi:10.1234 it's", []string{"doi101234", "its"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Words(tc.query))
		})
	}
}
