package jobs

import (
	"context"
	"fmt"
	"sort"

	"petport/internal/platform/logger"
	"petport/internal/ports/email"
	"petport/internal/ports/integrity"
)

type IntegritySummary struct {
	Issues   []integrity.Issue `json:"issues"`
	Notified int               `json:"notified"`
	Errors   []string          `json:"errors"`
}

const maxIssuesInAlert = 50

// IntegrityCheck junta los Audit de cada módulo y, si hay problemas, manda
// integrity-alert a cada admin.
func IntegrityCheck(auditors map[string]integrity.Auditor, sender email.Sender, admins []string, log logger.Logger) Func {
	if log == nil {
		log = logger.Nop()
	}
	names := make([]string, 0, len(auditors))
	for n := range auditors {
		names = append(names, n)
	}
	sort.Strings(names)

	return func(ctx context.Context) (any, error) {
		out := IntegritySummary{Issues: []integrity.Issue{}, Errors: []string{}}
		for _, n := range names {
			issues, err := auditors[n].Audit(ctx)
			if err != nil {
				out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", n, err))
				continue
			}
			out.Issues = append(out.Issues, issues...)
		}

		if len(out.Issues) == 0 || sender == nil {
			return out, nil
		}

		shown := out.Issues
		if len(shown) > maxIssuesInAlert {
			shown = shown[:maxIssuesInAlert]
		}
		rows := make([]map[string]any, 0, len(shown))
		for _, is := range shown {
			rows = append(rows, map[string]any{"kind": is.Kind, "ref": is.Ref, "detail": is.Detail})
		}

		for _, to := range admins {
			err := sender.Send(ctx, email.Message{
				To:       to,
				Template: email.TemplateIntegrityAlert,
				Tag:      "integrity",
				Model: map[string]any{
					"issue_count": len(out.Issues),
					"issues":      rows,
				},
			})
			if err != nil {
				log.Warn("integrity alert failed", map[string]any{"to": to, "error": err})
				out.Errors = append(out.Errors, fmt.Sprintf("alert %s: %v", to, err))
				continue
			}
			out.Notified++
		}
		return out, nil
	}
}
