package vision

import (
	"context"
	"testing"
)

func TestTitleFromFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"checkout_payment-method.png", "Checkout Payment Method"},
		{"/uploads/2024/login.PNG", "Login"},
		{"IMG_0042.jpg", "IMG 0042"},
		{".png", "Untitled Screen"},
	}
	for _, c := range cases {
		if got := TitleFromFilename(c.in); got != c.want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHeuristicProvider(t *testing.T) {
	var p Heuristic
	a, err := p.AnalyzeScreenshot(context.Background(), "", "sign_up.png")
	if err != nil {
		t.Fatalf("AnalyzeScreenshot: %v", err)
	}
	if a.Title != "Sign Up" {
		t.Errorf("title = %q, want Sign Up", a.Title)
	}
	if len(a.Elements) != 0 {
		t.Errorf("heuristic provider detected %d elements", len(a.Elements))
	}
}

func TestStripFences(t *testing.T) {
	in := "```json\n{\"title\":\"X\"}\n```"
	if got := stripFences(in); got != `{"title":"X"}` {
		t.Errorf("stripFences = %q", got)
	}
	if got := stripFences(`{"a":1}`); got != `{"a":1}` {
		t.Errorf("unfenced input changed: %q", got)
	}
}
