package view

import "testing"

func TestDeleteGuard(t *testing.T) {
	var g DeleteGuard

	if g.Tap("a") {
		t.Fatalf("first tap must only arm")
	}
	if g.Armed() != "a" {
		t.Fatalf("expected a armed, got %q", g.Armed())
	}
	if g.Tap("b") {
		t.Fatalf("tap on another row must re-arm, not confirm")
	}
	if !g.Tap("b") {
		t.Fatalf("second tap on the same row must confirm")
	}
	if g.Armed() != "" {
		t.Fatalf("confirm must disarm")
	}

	g.Tap("c")
	g.Reset()
	if g.Tap("c") {
		t.Fatalf("reset must clear the arm")
	}
}
