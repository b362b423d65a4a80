package incidents

import (
	"context"
	"strings"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Notifier receives fire-and-forget lifecycle notifications.
type Notifier interface {
	Notify(ctx context.Context, title, message string, severity domain.Severity)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(context.Context, string, string, domain.Severity) {}

// Notification titles that do not follow a status change.
const (
	titleDuplicate        = "Duplicate Detected"
	titleNoResponder      = "No On-Call Responder"
	titleEscalationFailed = "Escalation Failed"
)

// statusTitle renders "Incident Acknowledged" style titles.
// A Caser is stateful, so one is built per call.
func statusTitle(status domain.IncidentStatus) string {
	return "Incident " + cases.Title(language.English).String(strings.ToLower(string(status)))
}

func assigneeOr(inc *domain.Incident, fallback string) string {
	if inc.AssignedTo == nil || *inc.AssignedTo == "" {
		return fallback
	}
	return *inc.AssignedTo
}
