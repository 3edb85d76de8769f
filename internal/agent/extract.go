package agent

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const excerptLen = 500

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	jobTitlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)job title:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)position:\s*([^\n]+)`),
	}
	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)company:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)employer:\s*([^\n]+)`),
	}
	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)location:\s*([^\n]+)`),
		regexp.MustCompile(`(?i)based in:\s*([^\n]+)`),
	}
)

// Extract derives category-specific fields from fetched page content. Best
// effort only: it never fails and returns a possibly-empty fragment that the
// executor merges into the base record.
func Extract(content, pageURL string, cat Category) Result {
	switch cat {
	case CategoryEmail:
		emails := extractEmails(content)
		return Result{Emails: emails, ContactInfo: emails}
	case CategoryJob:
		return extractJobInfo(content, pageURL)
	default:
		excerpt := content
		if len(excerpt) > excerptLen {
			excerpt = excerpt[:excerptLen]
		}
		return Result{Excerpt: excerpt}
	}
}

// extractEmails scans content for email addresses, deduplicated in
// first-seen order.
func extractEmails(content string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailPattern.FindAllString(content, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// extractJobInfo applies a small set of label heuristics for title, company
// and location; the first pattern in each group that matches wins. The source
// URL is always attached as the job URL.
func extractJobInfo(content, pageURL string) Result {
	r := Result{JobURL: pageURL}

	if title := titleTagText(content); title != "" {
		r.JobTitle = title
	} else {
		r.JobTitle = firstMatch(jobTitlePatterns, content)
	}
	r.Company = firstMatch(companyPatterns, content)
	r.Location = firstMatch(locationPatterns, content)
	return r
}

// titleTagText pulls the document title when the content is HTML-ish,
// keeping only the part before a " - " or " | " site-name separator.
func titleTagText(content string) string {
	if !strings.Contains(content, "<title") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return ""
	}
	for _, sep := range []string{" - ", " | "} {
		if idx := strings.Index(title, sep); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return title
}

func firstMatch(patterns []*regexp.Regexp, content string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(content); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// merge copies extracted fields into the base record, leaving base fields in
// place where the fragment is empty.
func (r *Result) merge(frag Result) {
	if len(frag.Emails) > 0 {
		r.Emails = frag.Emails
		r.ContactInfo = frag.ContactInfo
	}
	if frag.JobTitle != "" {
		r.JobTitle = frag.JobTitle
	}
	if frag.Company != "" {
		r.Company = frag.Company
	}
	if frag.Location != "" {
		r.Location = frag.Location
	}
	if frag.JobURL != "" {
		r.JobURL = frag.JobURL
	}
	if frag.Excerpt != "" {
		r.Excerpt = frag.Excerpt
	}
}
