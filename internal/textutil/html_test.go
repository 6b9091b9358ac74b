package textutil

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text unchanged",
			in:   "Hello there, see you Friday.",
			want: "Hello there, see you Friday.",
		},
		{
			name: "tags removed",
			in:   "<p>Hello <b>world</b></p>",
			want: "Hello world",
		},
		{
			name: "entities decoded",
			in:   "Tom &amp; Jerry &lt;3",
			want: "Tom & Jerry <3",
		},
		{
			name: "style content dropped",
			in:   "<style>body { color: red; }</style><div>Visible</div>",
			want: "Visible",
		},
		{
			name: "whitespace collapsed",
			in:   "<div>  one\n\n two\t three  </div>",
			want: "one two three",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"héllo wörld", 5, "héllo"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
