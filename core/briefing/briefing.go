// Package briefing turns a structured topic brief into priming text for the
// generation adapters. The transform is deterministic and stateless: the same
// brief always renders to the same text.
package briefing

import (
	"fmt"
	"strings"

	"github.com/koscakluka/roundtable-core/core/participants"
)

// Brief describes the conversation before it starts: what it is about, who
// is at the table, and what ground it should cover.
type Brief struct {
	Topic     string
	Objective string
	Audience  string

	// Personas describes each participant's role in the conversation, keyed
	// by participant. Rendered in the fixed participant order.
	Personas map[participants.Role]string

	TalkingPoints []string
	Constraints   []string
}

// Render converts the brief into priming text for injection ahead of the
// first prompt. Empty sections are omitted entirely.
func (b Brief) Render() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Roundtable Briefing: %s\n\n", b.Topic))

	if b.Objective != "" {
		sb.WriteString("## Objective\n\n")
		sb.WriteString(b.Objective)
		sb.WriteString("\n\n")
	}

	if b.Audience != "" {
		sb.WriteString("## Audience\n\n")
		sb.WriteString(b.Audience)
		sb.WriteString("\n\n")
	}

	if len(b.Personas) > 0 {
		sb.WriteString("## Participants\n\n")
		for _, role := range participants.Roles() {
			persona, ok := b.Personas[role]
			if !ok || persona == "" {
				continue
			}
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", role, persona))
		}
		sb.WriteString("\n")
	}

	if len(b.TalkingPoints) > 0 {
		sb.WriteString("## Talking Points\n\n")
		for i, point := range b.TalkingPoints {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, point))
		}
		sb.WriteString("\n")
	}

	if len(b.Constraints) > 0 {
		sb.WriteString("## Constraints\n\n")
		for _, constraint := range b.Constraints {
			sb.WriteString(fmt.Sprintf("- %s\n", constraint))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}
