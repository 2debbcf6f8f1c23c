package embedded

import "testing"

func TestFindAbsent(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"plain page":     "<html><body><p>closed today</p></body></html>",
		"no string arg":  `<script>var x = JSON.parse(window.data);</script>`,
		"single quotes":  `<script>JSON.parse('{"a":1}')</script>`,
		"unterminated":   `<script>JSON.parse("{\"a\":1}`,
		"concatenation":  `<script>JSON.parse("{" + rest)</script>`,
		"empty argument": `<script>JSON.parse("")</script>`,
		"marker only":    `JSON.parse(`,
	}
	for name, html := range cases {
		t.Run(name, func(t *testing.T) {
			if lit, ok := Find(html); ok {
				t.Fatalf("expected absent, got %+v", lit)
			}
		})
	}
}

func TestFindHonoursEscapedQuotesAndNewlines(t *testing.T) {
	html := "<script>\nwindow.__PRELOADED_STATE__ = JSON.parse(\"{\\\"name\\\":\\\"Keema \\\\\\\"Roti\\\\\\\"\\\",\n\\\"x\\\":\\\")\\\"}\");\n</script>"
	lit, ok := Find(html)
	if !ok {
		t.Fatal("expected literal")
	}
	want := "{\\\"name\\\":\\\"Keema \\\\\\\"Roti\\\\\\\"\\\",\n\\\"x\\\":\\\")\\\"}"
	if lit.Text != want {
		t.Fatalf("unexpected literal:\n got %q\nwant %q", lit.Text, want)
	}
	if html[lit.Offset:lit.Offset+len(lit.Text)] != lit.Text {
		t.Fatalf("offset %d does not point at literal", lit.Offset)
	}
}

func TestFindSkipsIncompleteCandidates(t *testing.T) {
	html := `<script>JSON.parse(data); JSON.parse ("a" + b); JSON.parse( "{\"ok\":true}" )</script>`
	lit, ok := Find(html)
	if !ok {
		t.Fatal("expected literal")
	}
	if lit.Text != `{\"ok\":true}` {
		t.Fatalf("unexpected literal %q", lit.Text)
	}
}

func TestFindReturnsFirstMatch(t *testing.T) {
	html := `JSON.parse("{\"n\":1}") JSON.parse("{\"n\":2}")`
	lit, ok := Find(html)
	if !ok || lit.Text != `{\"n\":1}` {
		t.Fatalf("expected first literal, got %q ok=%v", lit.Text, ok)
	}
}
