package duckduckgo

import "testing"

const liteSample = `<html><body><table>
<tr><td><a class="result-link" href="https://hubspot.com">HubSpot Marketing Hub</a></td></tr>
<tr><td class="result-snippet">All-in-one marketing &amp; sales platform</td></tr>
<tr><td><a class="result-link" href="https://moz.com">Moz SEO Tools</a></td></tr>
<tr><td class="result-snippet">SEO and marketing analytics</td></tr>
<tr><td><a class="result-link" href="https://semrush.com">SEMrush</a></td></tr>
<tr><td class="result-snippet">Digital marketing toolkit</td></tr>
</table></body></html>`

func TestParseLite(t *testing.T) {
	results := ParseLite(liteSample, 5)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Title != "HubSpot Marketing Hub" || results[0].URL != "https://hubspot.com" {
		t.Fatalf("unexpected first result: %#v", results[0])
	}
	if results[0].Snippet != "All-in-one marketing & sales platform" {
		t.Fatalf("entities should be decoded, got %q", results[0].Snippet)
	}
}

func TestParseLite_RespectsLimit(t *testing.T) {
	results := ParseLite(liteSample, 2)
	if len(results) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(results))
	}
}

func TestParseLite_FallbackOnUnknownMarkup(t *testing.T) {
	html := `<html><body>
<a href="/settings">internal link</a>
<a href="https://duckduckgo.com/about">about page</a>
<a href="https://example.com/article">A reasonably long title</a>
<a href="https://example.com/article">A reasonably long title</a>
</body></html>`

	results := ParseLite(html, 5)
	if len(results) != 1 {
		t.Fatalf("expected one deduplicated external link, got %#v", results)
	}
	if results[0].URL != "https://example.com/article" {
		t.Fatalf("unexpected fallback result: %#v", results[0])
	}
}

func TestParseLite_Empty(t *testing.T) {
	if results := ParseLite("<html><body>no links</body></html>", 5); len(results) != 0 {
		t.Fatalf("expected no results, got %#v", results)
	}
}

func TestCleanHTML(t *testing.T) {
	got := cleanHTML("Tom &amp; Jerry&nbsp;&#x27;s   page")
	want := `Tom & Jerry 's page`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
