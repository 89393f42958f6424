package models

import (
	"strings"
	"testing"
)

func TestPostPreview(t *testing.T) {
	short := Post{Text: "коротко"}
	if got := short.Preview(); got != "коротко" {
		t.Fatalf("short text should pass through, got %q", got)
	}

	exact := Post{Text: strings.Repeat("я", PreviewLength)}
	if got := exact.Preview(); got != exact.Text {
		t.Fatalf("exact-length text should pass through, got %q", got)
	}

	long := Post{Text: "Это очень длинный текст записи, который надо обрезать"}
	got := long.Preview()
	if runes := []rune(got); len(runes) != PreviewLength {
		t.Fatalf("want %d runes, got %d (%q)", PreviewLength, len(runes), got)
	}
	if !strings.HasPrefix(long.Text, got) {
		t.Fatalf("preview is not a prefix: %q", got)
	}
}

func TestUserFullName(t *testing.T) {
	u := User{Username: "leo", FirstName: "Лев", LastName: "Толстой"}
	if got := u.FullName(); got != "Лев Толстой" {
		t.Fatalf("full name: %q", got)
	}

	u = User{Username: "leo", FirstName: "Лев"}
	if got := u.FullName(); got != "Лев" {
		t.Fatalf("first name only: %q", got)
	}

	u = User{Username: "leo"}
	if got := u.FullName(); got != "leo" {
		t.Fatalf("fallback to username: %q", got)
	}
}
