package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "Name", "Classifier")
	table.AddRow("Person", "Class")
	table.AddRow("Address")
	table.AddRow("name", "Property", "ignored")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Name     Classifier" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "───────  ──────────" {
		t.Errorf("unexpected separator %q", lines[1])
	}
	if lines[2] != "Person   Class" {
		t.Errorf("unexpected row %q", lines[2])
	}
	if lines[3] != "Address" {
		t.Errorf("unexpected short row %q", lines[3])
	}
	if strings.Contains(buf.String(), "ignored") {
		t.Error("expected extra cells to be dropped")
	}
	if table.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", table.Len())
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	if buf.Len() != 0 {
		t.Errorf("expected empty output for table with no headers, got: %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Path", "model::Person")
	kv.AddRow("Classifier", "Class")
	kv.Render()

	want := "Path:       model::Person\nClassifier: Class\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Children", true)
	if buf.String() != "Children\n────────\n" {
		t.Errorf("unexpected header %q", buf.String())
	}
}

func TestNotFound(t *testing.T) {
	out := NotFound("model::Persn", []string{"model::Person"}, true)
	if !strings.Contains(out, "ELEMENT NOT FOUND: model::Persn") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "Did you mean: model::Person?") {
		t.Errorf("missing suggestion in %q", out)
	}

	out = NotFound("x", nil, true)
	if strings.Contains(out, "Did you mean") {
		t.Errorf("unexpected suggestion line in %q", out)
	}
}

func TestWithSpinner(t *testing.T) {
	var buf bytes.Buffer
	if err := WithSpinner(&buf, "Preloading", true, func() error { return nil }); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Preloading") {
		t.Errorf("missing success line in %q", buf.String())
	}

	buf.Reset()
	boom := errors.New("boom")
	if err := WithSpinner(&buf, "Importing", true, func() error { return boom }); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
	if !strings.Contains(buf.String(), "✗ Importing failed") {
		t.Errorf("missing failure line in %q", buf.String())
	}
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "working", true)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSuggestPaths(t *testing.T) {
	candidates := []string{"model::Person", "model::Address", "model::Firm", "String", "model"}

	tests := []struct {
		target string
		want   []string
	}{
		{"model::Persn", []string{"model::Person"}},
		{"person", []string{"model::Person"}},
		{"Strin", []string{"String"}},
		{"xyzzy::Nothing", []string{}},
	}

	for _, tt := range tests {
		got := SuggestPaths(tt.target, candidates)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("SuggestPaths(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
