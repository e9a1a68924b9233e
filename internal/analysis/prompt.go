package analysis

import (
	"fmt"
	"strings"

	"github.com/vinfotechlanceai/smartstep/internal/capture"
)

// viewRoles states which conclusion each view primarily supports.
var viewRoles = map[capture.View]string{
	capture.ViewTop:  "deformity assessment (bunions, hammer toes, swelling)",
	capture.ViewSide: "arch type classification",
	capture.ViewBack: "heel alignment assessment",
}

// BuildPrompt constructs the instruction text for an analysis request over
// the given provided views. The prompt lists exactly which views are
// present, assigns each view its primary derivation role, and requires any
// conclusion whose view is absent to be marked Unknown with a stated
// reason.
func BuildPrompt(provided []capture.View) string {
	names := make([]string, len(provided))
	for i, v := range provided {
		names[i] = string(v)
	}

	var missing []string
	present := make(map[capture.View]bool, len(provided))
	for _, v := range provided {
		present[v] = true
	}
	for _, v := range capture.Views {
		if !present[v] {
			missing = append(missing, string(v))
		}
	}

	var b strings.Builder
	b.WriteString(`You are a podiatric screening assistant. Analyze the attached foot photographs and produce a structured, heuristic assessment. This is a screening aid, not a medical diagnosis.

`)
	fmt.Fprintf(&b, "Provided views: %s.\n", strings.Join(names, ", "))
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Missing views: %s.\n", strings.Join(missing, ", "))
	}
	b.WriteString(`
Derivation rules:
- Derive the arch type primarily from the side view.
- Derive foot deformities primarily from the top view.
- Derive heel alignment primarily from the back view.
- When the view a conclusion depends on is NOT provided, report that conclusion as "Unknown" and state in its description or in the summary that the required view was absent.

Scoring:
- confidenceScore is a 0-100 number expressing your joint confidence over image quality and view completeness. Fewer or poorer views must lower the score.

Respond with a single JSON object conforming to the declared response schema. Do not include any text outside the JSON object.`)

	return b.String()
}
