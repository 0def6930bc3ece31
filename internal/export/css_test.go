package export

import "testing"

func TestNormalizeStylesheet(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want string
	}{
		{"position fixed", `div { position: fixed; color: red; }`, `div { color: red; }`},
		{"position absolute", `div { position: absolute; }`, `div { }`},
		{"position relative kept", `div { position: relative; }`, `div { position: relative; }`},
		{"transform", `div { transform: rotate(45deg); color: blue; }`, `div { color: blue; }`},
		{"transition and animation", `a { transition-duration: 1s; animation-name: spin; color: red }`, `a { color: red }`},
		{"negative margin", `div { margin-left: -10px; margin-right: 20px; }`, `div { margin-right: 1.25em; }`},
		{"negative shorthand", `div { margin: -5px 10px; }`, `div { }`},
		{"px and pt", `div { font-size: 16px; margin: 32px; line-height: 12pt; }`, `div { font-size: 1em; margin: 2em; line-height: 1em; }`},
		{"fractional", `p { text-indent: .5px }`, `p { text-indent: 0.03125em }`},
		{"relative units kept", `div { width: 50%; font-size: 2rem; }`, `div { width: 50%; font-size: 2rem; }`},
		{"comment", `div { /* position: fixed; */ color: red; }`, `div { /* position: fixed; */ color: red; }`},
		{"string literal", `div::before { content: "position: fixed; 16px"; }`, `div::before { content: "position: fixed; 16px"; }`},
		{"data url", `p { background: url(data:image/png;base64,AAAA); }`, `p { background: url(data:image/png;base64,AAAA); }`},
		{"media query", "@media screen { p { position: fixed; margin: 8px } }", "@media screen { p { margin: 0.5em } }"},
		{"empty", ``, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeStylesheet(tt.css); got != tt.want {
				t.Fatalf("NormalizeStylesheet(%q) = %q, want %q", tt.css, got, tt.want)
			}
		})
	}
}
