package dispatch

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"github.com/MikeSquared-Agency/taskscribe/internal/extractor"
	"github.com/MikeSquared-Agency/taskscribe/internal/slack"
)

const (
	subjectTaskLimit = 50
	footerText       = "This task was automatically assigned based on a meeting transcript"
)

// dueDateLine renders the due date for people. Unparseable values are shown
// as the model wrote them.
func dueDateLine(due string, loc *time.Location) string {
	due = strings.TrimSpace(due)
	if due == "" {
		return ""
	}
	if t, ok := extractor.ParseTime(due, loc); ok {
		return "Due date: " + t.Format("Monday, January 02, 2006")
	}
	return "Due date: " + due
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}

func emailSubject(task string) string {
	runes := []rune(task)
	if len(runes) > subjectTaskLimit {
		return "Task Assignment: " + string(runes[:subjectTaskLimit]) + "..."
	}
	return "Task Assignment: " + task
}

func emailBody(name, task, dueLine string) string {
	var b strings.Builder
	b.WriteString("<html>\n  <body>\n")
	fmt.Fprintf(&b, "    <p>Hi %s,</p>\n", html.EscapeString(titleCase(name)))
	b.WriteString("    <p>You've been assigned the following task:</p>\n")
	b.WriteString(`    <div style="padding: 10px; background-color: #f0f0f0; border-left: 4px solid #2196F3;">` + "\n")
	fmt.Fprintf(&b, "      <p><strong>%s</strong></p>\n", html.EscapeString(task))
	if dueLine != "" {
		fmt.Fprintf(&b, "      <p>%s</p>\n", html.EscapeString(dueLine))
	}
	b.WriteString("    </div>\n")
	b.WriteString("    <p>" + footerText + ".</p>\n")
	b.WriteString("    <p>Best regards,<br>Taskscribe</p>\n")
	b.WriteString("  </body>\n</html>\n")
	return b.String()
}

func chatBlocks(name, task, dueLine string) []slack.Block {
	blocks := []slack.Block{
		mrkdwnSection(fmt.Sprintf("Hi %s, you've been assigned a new task from a meeting:", titleCase(name))),
		{"type": "divider"},
		mrkdwnSection("*Task:* " + task),
	}
	if dueLine != "" {
		blocks = append(blocks, mrkdwnSection("*"+dueLine+"*"))
	}
	blocks = append(blocks, slack.Block{
		"type": "context",
		"elements": []map[string]any{
			{"type": "mrkdwn", "text": footerText},
		},
	})
	return blocks
}

func mrkdwnSection(text string) slack.Block {
	return slack.Block{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": text},
	}
}
