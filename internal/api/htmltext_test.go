package api

import "testing"

func TestHtmlText_BlocksBecomeParagraphs(t *testing.T) {
	src := "<h1>Title</h1><p>First paragraph.</p><p>Second <b>bold</b> paragraph.</p>"
	got := htmlText(src)
	want := "Title\n\nFirst paragraph.\n\nSecond bold paragraph."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHtmlText_SkipsScriptAndStyle(t *testing.T) {
	src := "<p>visible</p><script>alert(1)</script><style>p{}</style>"
	got := htmlText(src)
	if got != "visible" {
		t.Errorf("expected only visible text, got %q", got)
	}
}

func TestHtmlText_Empty(t *testing.T) {
	if got := htmlText(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := htmlText("   \n "); got != "" {
		t.Errorf("expected empty string for whitespace, got %q", got)
	}
}

func TestHtmlText_TableRows(t *testing.T) {
	src := "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td></tr></table>"
	got := htmlText(src)
	want := "ab\n\nc"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
