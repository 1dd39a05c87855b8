package summarizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Token
	}{
		{
			name: "camel case flags",
			raw:  `{"text":".","lemma":".","pos":"PUNCT","isPunct":true}`,
			want: Token{Text: ".", Lemma: ".", POS: "PUNCT", IsPunct: true},
		},
		{
			name: "snake case flags",
			raw:  `{"text":"the","lemma":"the","pos":"DET","is_stop":true,"is_punct":false}`,
			want: Token{Text: "the", Lemma: "the", POS: "DET", IsStop: true},
		},
		{
			name: "camel case wins",
			raw:  `{"text":"a","isStop":false,"is_stop":true}`,
			want: Token{Text: "a"},
		},
		{
			name: "no flags",
			raw:  `{"text":"cat","lemma":"cat","pos":"NOUN"}`,
			want: Token{Text: "cat", Lemma: "cat", POS: "NOUN"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got Token
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTokenUnmarshalJSONRejectsWrongType(t *testing.T) {
	var got Token
	require.Error(t, json.Unmarshal([]byte(`{"text":"x","is_punct":"yes"}`), &got))
}
