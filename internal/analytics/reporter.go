// Package analytics aggregates lead scores and rule success rates. Read-only;
// storage errors propagate to the caller.
package analytics

import (
	"fmt"
	"io"

	"whatsapp-salesbot/internal/database"
)

type ContactReport struct {
	Name       string `json:"name"`
	LeadScore  int    `json:"lead_score"`
	Engagement string `json:"engagement"`
	Stage      string `json:"stage"`
}

type ScriptReport struct {
	Stage        string  `json:"stage"`
	Keyword      string  `json:"keyword"`
	SuccessCount int     `json:"success_count"`
	UseCount     int     `json:"use_count"`
	SuccessRate  float64 `json:"success_rate"`
}

type Reporter struct {
	store *database.Store
}

func NewReporter(store *database.Store) *Reporter {
	return &Reporter{store: store}
}

// ContactReport lists contacts by descending lead score.
func (r *Reporter) ContactReport() ([]ContactReport, error) {
	contacts, err := r.store.ContactsByScore()
	if err != nil {
		return nil, err
	}

	reports := make([]ContactReport, 0, len(contacts))
	for _, c := range contacts {
		reports = append(reports, ContactReport{
			Name:       c.Name,
			LeadScore:  c.LeadScore,
			Engagement: c.EngagementLevel,
			Stage:      c.CurrentStage,
		})
	}
	return reports, nil
}

// ScriptReport lists the rules that fired at least once with their success
// rate as a percentage.
func (r *Reporter) ScriptReport() ([]ScriptReport, error) {
	scripts, err := r.store.UsedScripts()
	if err != nil {
		return nil, err
	}

	reports := make([]ScriptReport, 0, len(scripts))
	for _, s := range scripts {
		rate := 0.0
		if s.UseCount > 0 {
			rate = float64(s.SuccessCount) / float64(s.UseCount) * 100
		}
		reports = append(reports, ScriptReport{
			Stage:        s.Stage,
			Keyword:      s.Keyword,
			SuccessCount: s.SuccessCount,
			UseCount:     s.UseCount,
			SuccessRate:  rate,
		})
	}
	return reports, nil
}

// Render writes the cycle report printed to the operator console.
func (r *Reporter) Render(w io.Writer) error {
	contacts, err := r.ContactReport()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\n📊 Relatório de Contatos:")
	for _, c := range contacts {
		fmt.Fprintf(w, "%s: Score=%d, Engajamento=%s, Estágio=%s\n", c.Name, c.LeadScore, c.Engagement, c.Stage)
	}

	scripts, err := r.ScriptReport()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\n📈 Desempenho dos Scripts:")
	for _, s := range scripts {
		fmt.Fprintf(w, "%s (%s): %.1f%% de sucesso (%d/%d)\n", s.Stage, s.Keyword, s.SuccessRate, s.SuccessCount, s.UseCount)
	}
	return nil
}
