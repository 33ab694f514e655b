// Package alert turns classified snapshots into user-facing notifications,
// deduplicating against the messages already delivered for each location.
package alert

import (
	"fmt"
	"slices"
	"strings"

	"github.com/skycast-app/skycast/internal/domain"
)

const morningSummaryLimit = 3

// Notification is one user-facing message ready for delivery.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`

	// Tag collapses repeat deliveries of the same location+type pair.
	Tag string `json:"tag"`

	// RequireInteraction keeps extreme and severe notifications on screen
	// until dismissed.
	RequireInteraction bool `json:"require_interaction"`
}

// Ledger maps a location id to the extreme and severe alert messages most
// recently delivered for it.
type Ledger map[string][]string

var severityEmoji = map[domain.Severity]string{
	domain.SeverityExtreme:  "🚨",
	domain.SeveritySevere:   "⚠️",
	domain.SeverityModerate: "⚡",
	domain.SeverityAdvisory: "ℹ️",
}

// Build formats a single alert for the given city.
func Build(city string, a domain.WeatherAlert) Notification {
	emoji, ok := severityEmoji[a.Severity]
	if !ok {
		emoji = "🌤️"
	}

	return Notification{
		Title: fmt.Sprintf("%s Weather Alert - %s", emoji, city),
		Body:  a.Message,
		Tag:   fmt.Sprintf("weather-alert-%s-%s", city, a.Type),
		RequireInteraction: a.Severity == domain.SeverityExtreme ||
			a.Severity == domain.SeveritySevere,
	}
}

// Reconcile compares each snapshot's extreme and severe alerts against the
// previous ledger. It returns the replacement ledger and the notifications
// for messages the previous ledger did not record. Locations without a
// severe alert drop out of the ledger entirely, so an alert that clears and
// later returns is delivered again.
func Reconcile(snapshots []domain.WeatherSnapshot, previous Ledger) (Ledger, []Notification) {
	next := make(Ledger)
	var notifications []Notification

	for _, snap := range snapshots {
		if !snap.HasSevereAlert {
			continue
		}

		prev := previous[snap.LocationID]
		messages := []string{}
		for _, a := range snap.Alerts {
			if a.Severity != domain.SeverityExtreme && a.Severity != domain.SeveritySevere {
				continue
			}
			messages = append(messages, a.Message)
			if !slices.Contains(prev, a.Message) {
				notifications = append(notifications, Build(snap.City, a))
			}
		}
		next[snap.LocationID] = messages
	}

	return next, notifications
}

// MorningSummary condenses the first snapshots into a single daily digest.
// Returns false when there is nothing to summarize.
func MorningSummary(snapshots []domain.WeatherSnapshot) (Notification, bool) {
	if len(snapshots) == 0 {
		return Notification{}, false
	}

	limit := min(morningSummaryLimit, len(snapshots))
	parts := make([]string, 0, limit)
	for _, snap := range snapshots[:limit] {
		parts = append(parts, fmt.Sprintf("%s: %d°C, %s", snap.City, snap.Temperature, snap.Condition))
	}

	return Notification{
		Title: "☀️ Morning Weather Summary",
		Body:  strings.Join(parts, " | "),
		Tag:   "morning-summary",
	}, true
}
