package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripComments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		exp  string
	}{
		{
			name: "no_comments",
			in:   "CREATE TABLE users (id INTEGER);\n",
			exp:  "CREATE TABLE users (id INTEGER);\n",
		},
		{
			name: "comment_mid_line",
			in:   "a#comment\nb",
			exp:  "a\nb",
		},
		{
			name: "comment_whole_line",
			in:   "# a comment\nSELECT 1;",
			exp:  "\nSELECT 1;",
		},
		{
			name: "comment_at_eof_without_newline",
			in:   "SELECT 1; # trailing",
			exp:  "SELECT 1; ",
		},
		{
			name: "multiple_markers_on_one_line",
			in:   "a # one # two\nb",
			exp:  "a \nb",
		},
		{
			name: "comments_never_span_lines",
			in:   "# first\n# second\nc",
			exp:  "\n\nc",
		},
		{
			name: "empty_input",
			in:   "",
			exp:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.exp, stripComments(tt.in))
		})
	}
}

func TestSplitDown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		expUp   string
		expDown string
	}{
		{
			name:    "no_marker",
			in:      "CREATE TABLE a (id INTEGER);",
			expUp:   "CREATE TABLE a (id INTEGER);",
			expDown: "",
		},
		{
			name:    "basic_marker",
			in:      "CREATE TABLE a (id INTEGER);\n-- migration: down\nDROP TABLE a;",
			expUp:   "CREATE TABLE a (id INTEGER);",
			expDown: "DROP TABLE a;",
		},
		{
			name:    "marker_case_and_whitespace",
			in:      "up\n  --   MIGRATION:   Down  \ndown",
			expUp:   "up",
			expDown: "down",
		},
		{
			name:    "marker_must_be_alone_on_its_line",
			in:      "SELECT 1; -- migration: down\nmore up",
			expUp:   "SELECT 1; -- migration: down\nmore up",
			expDown: "",
		},
		{
			name:    "only_first_marker_splits",
			in:      "up\n-- migration: down\na\n-- migration: down\nb",
			expUp:   "up",
			expDown: "a\n-- migration: down\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			up, down := splitDown(tt.in)
			assert.Equal(t, tt.expUp, up)
			assert.Equal(t, tt.expDown, down)
		})
	}
}
