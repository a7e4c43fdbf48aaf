package review

import (
	"fmt"
	"strings"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

const summarySystemPrompt = `You are a senior software engineer summarizing pull requests.
Describe what the change does, the areas it touches, and anything a reviewer
should pay attention to. Be concise and factual. Respond in Markdown with a
short "Summary" section followed by a bullet list of notable changes.`

const reviewSystemPrompt = `You are a senior software engineer reviewing a pull request.
Identify concrete problems: bugs, security issues, error handling gaps, and
misleading names. Do not comment on style preferences or restate the diff.
Respond with a single JSON document of the shape
{"comments": [{"path": "<file path>", "body": "<comment>", "line": <line number>}]}
and nothing else. Return {"comments": []} when the changes are fine.`

// buildSummaryPrompt embeds the pull request metadata and per-file patches.
// On the first summary the diff covers the entire pull request; afterwards it
// only covers the commits since the last reviewed one.
func buildSummaryPrompt(pr domain.PullRequest, files []github.ChangedFile, firstSummary bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pull request #%d: %s\n\n", pr.Number, pr.Title)
	if strings.TrimSpace(pr.Body) != "" {
		fmt.Fprintf(&b, "Description:\n%s\n\n", pr.Body)
	}
	if firstSummary {
		b.WriteString("Changed files:\n\n")
	} else {
		b.WriteString("Files changed since the last reviewed commit:\n\n")
	}
	writeFileSections(&b, files)

	return b.String()
}

// buildReviewPrompt embeds the same diff context plus the review framing.
func buildReviewPrompt(pr domain.PullRequest, files []github.ChangedFile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Review pull request #%d: %s\n\n", pr.Number, pr.Title)
	if strings.TrimSpace(pr.Body) != "" {
		fmt.Fprintf(&b, "Description:\n%s\n\n", pr.Body)
	}
	b.WriteString("Diff:\n\n")
	writeFileSections(&b, files)

	return b.String()
}

// priorSummaryContext frames the previous summary so the model can produce an
// incremental update instead of starting over.
func priorSummaryContext(previous string) string {
	return fmt.Sprintf("Previous summary of this pull request:\n\n%s\n\nUpdate it to reflect the additional changes that follow.", previous)
}

func writeFileSections(b *strings.Builder, files []github.ChangedFile) {
	for _, f := range files {
		fmt.Fprintf(b, "=== %s (%s, +%d -%d) ===\n", f.Filename, f.Status, f.Additions, f.Deletions)
		if f.Patch != "" {
			b.WriteString(f.Patch)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}
