package config

import (
	"reflect"
	"testing"
)

func TestParseCommand_RoundTrip(t *testing.T) {
	cases := [][]string{
		{"echo", "hi"},
		{"sh", "-c", "echo hello world"},
		{"cmd", "with spaces", "plain"},
		{`quoted"inner`},
	}

	for _, argv := range cases {
		rendered := RenderCommand(argv)
		got, err := ParseCommand(rendered)
		if err != nil {
			t.Fatalf("ParseCommand(%q) error: %v", rendered, err)
		}
		if !reflect.DeepEqual(got, argv) {
			t.Errorf("round trip mismatch: rendered=%q got=%v want=%v", rendered, got, argv)
		}
	}
}

func TestParseCommand_UnbalancedQuote(t *testing.T) {
	if _, err := ParseCommand(`echo "unterminated`); err == nil {
		t.Fatal("expected error for unbalanced quote")
	}
}

func TestParseCommand_SingleQuotesPreserveSpaces(t *testing.T) {
	got, err := ParseCommand(`sh -c 'echo hello world'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"sh", "-c", "echo hello world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
