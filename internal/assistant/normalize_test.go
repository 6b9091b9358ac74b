package assistant

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "lowercases",
			raw:  "Read Email Two",
			want: "read email 2",
		},
		{
			name: "cardinal words",
			raw:  "read email three",
			want: "read email 3",
		},
		{
			name: "ordinal words",
			raw:  "read the second one",
			want: "read the 2 1",
		},
		{
			name: "homophone after trigger",
			raw:  "read email to",
			want: "read email 2",
		},
		{
			name: "homophone after number word",
			raw:  "read number for",
			want: "read number 4",
		},
		{
			name: "homophone without trigger survives",
			raw:  "reply to john",
			want: "reply to john",
		},
		{
			name: "for without trigger survives",
			raw:  "search for invoices",
			want: "search for invoices",
		},
		{
			name: "trailing punctuation",
			raw:  "read email two!",
			want: "read email 2!",
		},
		{
			name: "digits unchanged",
			raw:  "read email 7",
			want: "read email 7",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
