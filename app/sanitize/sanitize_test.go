package sanitize

import "testing"

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "allowed markup kept",
			in:   `<p>Hello <strong>world</strong><br/></p>`,
			want: `<p>Hello <strong>world</strong><br></p>`,
		},
		{
			name: "disallowed tags stripped keeping text",
			in:   `<div><span class="x">Show notes</span></div>`,
			want: `Show notes`,
		},
		{
			name: "script and style content dropped",
			in:   `<p>a</p><script>alert(1)</script><style>p{}</style><p>b</p>`,
			want: `<p>a</p><p>b</p>`,
		},
		{
			name: "comments removed",
			in:   `<p>a<!-- hidden --></p>`,
			want: `<p>a</p>`,
		},
		{
			name: "attributes filtered",
			in:   `<a href="https://example.com" onclick="x()" rel="nofollow" class="c">link</a>`,
			want: `<a href="https://example.com" rel="nofollow">link</a>`,
		},
		{
			name: "mixed case and control character schemes removed",
			in:   `<a href="JaVaScRiPt:alert(1)">x</a><a href="java&#9;script:alert(1)">y</a>`,
			want: `<a>x</a><a>y</a>`,
		},
		{
			name: "disallowed protocol removed",
			in:   `<a href="javascript:alert(1)">x</a><img src="data:image/png;base64,AAA" alt="y">`,
			want: `<a>x</a><img alt="y">`,
		},
		{
			name: "mailto and relative URLs kept",
			in:   `<a href="mailto:host@example.com">mail</a><a href="/episodes/1">ep</a>`,
			want: `<a href="mailto:host@example.com">mail</a><a href="/episodes/1">ep</a>`,
		},
		{
			name: "iframe attributes",
			in:   `<iframe src="https://player.example.com/1" width="100%" height="180" style="border:0" allow="autoplay"></iframe>`,
			want: `<iframe src="https://player.example.com/1" width="100%" height="180" allow="autoplay"></iframe>`,
		},
		{
			name: "unclosed tags closed",
			in:   `<p><em>open`,
			want: `<p><em>open</em></p>`,
		},
		{
			name: "stray end tags ignored",
			in:   `text</p></em>`,
			want: `text`,
		},
		{
			name: "text escaped",
			in:   `Tom &amp; Jerry &lt;3`,
			want: `Tom &amp; Jerry &lt;3`,
		},
		{
			name: "empty input",
			in:   ``,
			want: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTML(tt.in); got != tt.want {
				t.Errorf("HTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
