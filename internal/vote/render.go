package vote

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Phase selects the wording of the result line.
type Phase int

const (
	// PhaseProvisional is used while the voting window is open.
	PhaseProvisional Phase = iota
	// PhaseFinal is used once the window has closed.
	PhaseFinal
)

// PhaseAt derives the rendering phase from the clock: final at or after
// the window end, provisional before it.
func (r *Record) PhaseAt(now time.Time) Phase {
	if now.Before(r.WindowEnd) {
		return PhaseProvisional
	}
	return PhaseFinal
}

const awaitingVotes = "(Aguardando votos)"

// Render produces the summary comment text for a record: the marker
// legend with per-category counts, the running total, and the result
// line for the given phase.
func Render(r *Record, phase Phase) string {
	var b strings.Builder
	b.WriteString("Que comecem os votos! Use os seguintes marcadores nos comentários para votar:\n\n")
	for _, c := range Categories {
		fmt.Fprintf(&b, "- %s (%s): %d\n", c.Label(), c.Marker(), r.Count(c))
	}
	fmt.Fprintf(&b, "- Votos Totais: %d\n\n", r.Total)
	fmt.Fprintf(&b, "- Resultado: %s\n\n", Result(r, phase))
	b.WriteString("Os resultados atualizam a cada hora")
	return b.String()
}

// Result names the leading category, or reports a tie when the top two
// counts are equal. Categories are compared by count alone; there is no
// secondary tie-break key. With no votes yet it reports that the
// session is still waiting.
func Result(r *Record, phase Phase) string {
	if r.Total == 0 {
		return awaitingVotes
	}

	ranked := make([]Category, len(Categories))
	copy(ranked, Categories)
	sort.SliceStable(ranked, func(i, j int) bool {
		return r.Count(ranked[i]) > r.Count(ranked[j])
	})

	if r.Count(ranked[0]) == r.Count(ranked[1]) {
		return "Empate entre as opiniões!"
	}
	if phase == PhaseFinal {
		return ranked[0].Label() + " venceu!"
	}
	return ranked[0].Label() + " está vencendo!"
}
