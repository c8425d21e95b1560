// ABOUTME: Participant email normalization for invited client lists
// ABOUTME: Lowercases, trims, and deduplicates provider participant emails
package sync

import (
	"strings"

	"github.com/harperreed/shadecal/models"
)

// participantEmails maps provider participants to a deduplicated list of
// normalized emails, preserving first-seen order.
func participantEmails(participants []models.Participant) []string {
	if len(participants) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(participants))
	emails := make([]string, 0, len(participants))
	for _, p := range participants {
		email := normalizeEmail(p.Email)
		if email == "" || !strings.Contains(email, "@") || seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	return emails
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
