package briefing

import (
	"strings"
	"testing"

	"github.com/koscakluka/roundtable-core/core/participants"
)

func TestRenderIsDeterministic(t *testing.T) {
	brief := Brief{
		Topic:     "The future of community radio",
		Objective: "Surface three concrete funding ideas.",
		Personas: map[participants.Role]string{
			participants.RoleGuestAgent:   "A skeptical station manager.",
			participants.RoleHuman:        "The moderator.",
			participants.RolePrimaryAgent: "An optimistic policy analyst.",
		},
		TalkingPoints: []string{"Listener funding", "Municipal grants"},
		Constraints:   []string{"Keep answers under a minute."},
	}

	first := brief.Render()
	for i := 0; i < 10; i++ {
		if got := brief.Render(); got != first {
			t.Fatalf("render is not deterministic:\n%s\nvs\n%s", first, got)
		}
	}

	moderator := strings.Index(first, "**human**")
	analyst := strings.Index(first, "**primary_agent**")
	manager := strings.Index(first, "**guest_agent**")
	if moderator == -1 || analyst == -1 || manager == -1 {
		t.Fatalf("expected all personas rendered:\n%s", first)
	}
	if !(moderator < analyst && analyst < manager) {
		t.Fatalf("expected personas in fixed participant order:\n%s", first)
	}
}

func TestRenderOmitsEmptySections(t *testing.T) {
	rendered := Brief{Topic: "Quick sync"}.Render()

	if !strings.HasPrefix(rendered, "# Roundtable Briefing: Quick sync") {
		t.Fatalf("expected topic header, got:\n%s", rendered)
	}
	for _, heading := range []string{"## Objective", "## Audience", "## Participants", "## Talking Points", "## Constraints"} {
		if strings.Contains(rendered, heading) {
			t.Fatalf("expected %s omitted for empty brief, got:\n%s", heading, rendered)
		}
	}
}
