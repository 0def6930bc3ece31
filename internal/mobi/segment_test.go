package mobi

import (
	"strings"
	"testing"

	"github.com/yuanying/bionicbook/internal/markup"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantTitles []string
		wantMarkup []string
	}{
		{
			name:       "headings",
			text:       "<html><body><h1>One</h1><p>a</p><h2>Two</h2><p>b</p></body></html>",
			wantTitles: []string{"One", "Two"},
			wantMarkup: []string{"<h1>One</h1><p>a</p>", "<h2>Two</h2><p>b</p>"},
		},
		{
			name:       "leading content before first heading",
			text:       "<p>intro</p><h1>Start</h1><p>body</p>",
			wantTitles: []string{"Chapter 1", "Start"},
			wantMarkup: []string{"<p>intro</p>", "<h1>Start</h1><p>body</p>"},
		},
		{
			name:       "page breaks",
			text:       "<p>first</p><mbp:pagebreak/><p>second</p>",
			wantTitles: []string{"Chapter 1", "Chapter 2"},
			wantMarkup: []string{"<p>first</p>", "<mbp:pagebreak/><p>second</p>"},
		},
		{
			name:       "chapter class",
			text:       `<div class="Chapter-Start">  Part   One </div><p>x</p>`,
			wantTitles: []string{"Part One"},
			wantMarkup: []string{`<div class="Chapter-Start">  Part   One </div><p>x</p>`},
		},
		{
			name:       "blank leading segment is dropped",
			text:       "  \n<h1>Only</h1><p>text</p>",
			wantTitles: []string{"Only"},
		},
		{
			name:       "no delimiters",
			text:       "<p>Just one</p><p>block</p>",
			wantTitles: []string{"Content"},
			wantMarkup: []string{"<p>Just one</p><p>block</p>"},
		},
		{
			name:       "empty text",
			text:       "",
			wantTitles: []string{"Content"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chapters, err := Segment(tt.text)
			if err != nil {
				t.Fatalf("Segment() error = %v", err)
			}
			if len(chapters) != len(tt.wantTitles) {
				t.Fatalf("len(chapters) = %d, want %d", len(chapters), len(tt.wantTitles))
			}
			for i, ch := range chapters {
				if ch.Title != tt.wantTitles[i] {
					t.Errorf("chapters[%d].Title = %q, want %q", i, ch.Title, tt.wantTitles[i])
				}
				if ch.Order != i {
					t.Errorf("chapters[%d].Order = %d, want %d", i, ch.Order, i)
				}
				if tt.wantMarkup != nil && ch.Markup != tt.wantMarkup[i] {
					t.Errorf("chapters[%d].Markup = %q, want %q", i, ch.Markup, tt.wantMarkup[i])
				}
			}
		})
	}
}

func TestSegment_HeadingWithoutText(t *testing.T) {
	chapters, err := Segment("<p>a</p><h1> </h1><p>b</p>")
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("len(chapters) = %d, want 2", len(chapters))
	}
	if chapters[1].Title != "Chapter 2" {
		t.Fatalf("chapters[1].Title = %q, want %q", chapters[1].Title, "Chapter 2")
	}
}

func TestIsChapterDelimiter(t *testing.T) {
	tests := []struct {
		fragment string
		want     bool
	}{
		{"<h1>x</h1>", true},
		{"<h2>x</h2>", true},
		{"<h3>x</h3>", false},
		{"<mbp:pagebreak/>", true},
		{`<section class="chapter">x</section>`, true},
		{`<p class="intro">x</p>`, false},
		{"plain text", false},
	}
	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			root, err := markup.ParseFragment(tt.fragment)
			if err != nil {
				t.Fatalf("ParseFragment() error = %v", err)
			}
			if len(root.Children) == 0 {
				t.Fatal("ParseFragment() returned no nodes")
			}
			if got := IsChapterDelimiter(root.Children[0]); got != tt.want {
				t.Fatalf("IsChapterDelimiter(%s) = %v, want %v", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestSegment_KeepsNestedMarkup(t *testing.T) {
	chapters, err := Segment(`<h1>T</h1><div><p>a <em>b</em></p><img src="x.png"/></div>`)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if !strings.Contains(chapters[0].Markup, `<p>a <em>b</em></p><img src="x.png"/>`) {
		t.Fatalf("Markup = %q, want nested content preserved", chapters[0].Markup)
	}
}
