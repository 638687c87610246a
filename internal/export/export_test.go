package export

import (
	"errors"
	"strings"
	"testing"
)

func TestRenderLetterHTML(t *testing.T) {
	html, err := RenderLetterHTML(Request{
		Body:     "Dear Hiring Manager,\n\nI am writing to apply.\n\nSincerely,\nAlice",
		Template: TemplateClassic,
		Author:   "Alice Smith",
		Title:    "Cover Letter",
	})
	if err != nil {
		t.Fatalf("RenderLetterHTML failed: %v", err)
	}

	for _, want := range []string{"Dear Hiring Manager,", "I am writing to apply.", "Alice Smith", "Georgia"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderLetterHTML_EscapesContent(t *testing.T) {
	html, err := RenderLetterHTML(Request{
		Body:     "I know <script>alert(1)</script> & more",
		Template: TemplateMinimal,
	})
	if err != nil {
		t.Fatalf("RenderLetterHTML failed: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("body HTML was not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("expected escaped script tag")
	}
}

func TestRenderLetterHTML_EmptyBody(t *testing.T) {
	if _, err := RenderLetterHTML(Request{Body: "   \n", Template: TemplateClassic}); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}

func TestRenderLetterHTML_UnknownTemplate(t *testing.T) {
	if _, err := RenderLetterHTML(Request{Body: "text", Template: "baroque"}); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestListTemplates(t *testing.T) {
	templates := ListTemplates()
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}
	seen := map[Template]bool{}
	for _, info := range templates {
		if info.Name == "" || info.Description == "" {
			t.Errorf("template %s missing name or description", info.ID)
		}
		seen[info.ID] = true
	}
	for _, id := range []Template{TemplateClassic, TemplateModern, TemplateMinimal} {
		if !seen[id] {
			t.Errorf("missing template %s", id)
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	paragraphs := splitParagraphs("one\n\ntwo\r\n\r\nthree\nstill three\n\n")
	if len(paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %#v", len(paragraphs), paragraphs)
	}
	if paragraphs[2] != "three\nstill three" {
		t.Errorf("unexpected third paragraph: %q", paragraphs[2])
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cover Letter", "Cover-Letter"},
		{"a/b\\c:d", "abcd"},
		{"", "letter"},
		{"***", "letter"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b+c")
	if got != "a%20b%2Bc" {
		t.Errorf("unexpected encoding: %q", got)
	}
}
