package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    [][]string
		raw     string
	}{
		{
			name:    "comma stays inside one field",
			content: "a,b\nc",
			want:    [][]string{{"a,b"}, {"c"}},
			raw:     "\"a,b\"\r\nc\r\n",
		},
		{
			name:    "carriage returns removed",
			content: "x\r\ny\r",
			want:    [][]string{{"x"}, {"y"}},
			raw:     "x\r\ny\r\n",
		},
		{
			name:    "quotes escaped",
			content: `say "hi"`,
			want:    [][]string{{`say "hi"`}},
			raw:     "\"say \"\"hi\"\"\"\r\n",
		},
		{
			name:    "blank line becomes empty field",
			content: "a\n\nb",
			want:    [][]string{{"a"}, {""}, {"b"}},
			raw:     "a\r\n\"\"\r\nb\r\n",
		},
		{
			name:    "empty content",
			content: "",
			want:    [][]string{{""}},
			raw:     "\"\"\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewCSVExporter().Export(context.Background(), NewDocument("ignored", tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.raw, string(data))
			assert.Equal(t, tt.want, readCSV(t, data))
		})
	}
}
