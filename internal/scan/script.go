package scan

import (
	"iter"
	"strings"

	"github.com/dgallion1/nexthydra/hydration"
	"golang.org/x/net/html"
)

// ScriptFragments is like Fragments but only looks inside inline <script>
// elements (those without a src attribute). Positions are still byte
// offsets into the whole document.
func ScriptFragments(doc string) iter.Seq[hydration.RawFragment] {
	return func(yield func(hydration.RawFragment) bool) {
		z := html.NewTokenizer(strings.NewReader(doc))
		offset := 0
		inScript := false

		for {
			tt := z.Next()
			raw := z.Raw()
			start := offset
			offset += len(raw)

			switch tt {
			case html.ErrorToken:
				return
			case html.StartTagToken:
				name, hasAttr := z.TagName()
				inScript = string(name) == "script" && !hasSrc(z, hasAttr)
			case html.EndTagToken, html.SelfClosingTagToken:
				inScript = false
			case html.TextToken:
				if !inScript {
					continue
				}
				if !scanText(string(raw), start, yield) {
					return
				}
			}
		}
	}
}

func hasSrc(z *html.Tokenizer, more bool) bool {
	for more {
		var key []byte
		key, _, more = z.TagAttr()
		if string(key) == "src" {
			return true
		}
	}
	return false
}
