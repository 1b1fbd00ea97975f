// Package sanitize restricts feed item HTML to the markup a post body may
// carry.
package sanitize

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"p": true, "br": true, "strong": true, "b": true, "em": true, "i": true, "u": true,
	"blockquote": true, "ul": true, "ol": true, "li": true, "a": true, "code": true,
	"pre": true, "img": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "hr": true, "figure": true, "figcaption": true, "iframe": true,
}

var allowedAttributes = map[string]map[string]bool{
	"a":      {"href": true, "title": true, "rel": true},
	"img":    {"src": true, "alt": true, "title": true, "width": true, "height": true},
	"iframe": {"src": true, "width": true, "height": true, "frameborder": true, "allow": true},
}

var urlAttributes = map[string]bool{"href": true, "src": true}

var allowedProtocols = map[string]bool{"http": true, "https": true, "mailto": true}

// Elements whose content is dropped along with the tag.
var droppedElements = map[string]bool{"script": true, "style": true}

var voidElements = map[string]bool{"br": true, "hr": true, "img": true}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// HTML returns raw with every tag, attribute and URL scheme outside the
// allow-list removed. Text inside removed tags is kept, comments are dropped
// and unclosed tags are closed.
func HTML(raw string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))

	var open []string
	dropDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return b.String()
			}
			for i := len(open) - 1; i >= 0; i-- {
				writeEndTag(&b, open[i])
			}
			return b.String()

		case html.TextToken:
			if dropDepth == 0 {
				b.WriteString(textEscaper.Replace(string(z.Text())))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if droppedElements[tok.Data] {
				if tt == html.StartTagToken {
					dropDepth++
				}
				continue
			}
			if dropDepth > 0 || !allowedTags[tok.Data] {
				continue
			}

			writeStartTag(&b, tok)
			switch {
			case voidElements[tok.Data]:
			case tt == html.SelfClosingTagToken:
				writeEndTag(&b, tok.Data)
			default:
				open = append(open, tok.Data)
			}

		case html.EndTagToken:
			tok := z.Token()
			if droppedElements[tok.Data] {
				if dropDepth > 0 {
					dropDepth--
				}
				continue
			}
			if dropDepth > 0 || !allowedTags[tok.Data] || voidElements[tok.Data] {
				continue
			}

			idx := lastIndex(open, tok.Data)
			if idx < 0 {
				continue
			}
			for len(open) > idx {
				writeEndTag(&b, open[len(open)-1])
				open = open[:len(open)-1]
			}
		}
	}
}

func writeStartTag(b *strings.Builder, tok html.Token) {
	b.WriteString("<")
	b.WriteString(tok.Data)

	allowed := allowedAttributes[tok.Data]
	for _, attr := range tok.Attr {
		if attr.Namespace != "" || !allowed[attr.Key] {
			continue
		}
		if urlAttributes[attr.Key] && !allowedURL(attr.Val) {
			continue
		}

		b.WriteString(" ")
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attr.Val))
		b.WriteString(`"`)
	}

	b.WriteString(">")
}

func writeEndTag(b *strings.Builder, name string) {
	b.WriteString("</")
	b.WriteString(name)
	b.WriteString(">")
}

func lastIndex(open []string, name string) int {
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == name {
			return i
		}
	}
	return -1
}

func allowedURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return true
	}
	return allowedProtocols[strings.ToLower(u.Scheme)]
}
