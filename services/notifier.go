package services

import (
	"fmt"
	"log"

	"safety-compliance-api/config"
	"safety-compliance-api/models"
)

// Notifier is told about completed status transitions. Failures are logged,
// never surfaced to the workflow caller.
type Notifier interface {
	StatusChanged(rmp *models.SafetyRMP, oldStatus string, actor Actor)
}

// MailNotifier e-mails the assigned reviewer when an RMP changes status.
type MailNotifier struct {
	store *RecordStore
}

// NewMailNotifier creates a notifier that resolves reviewer addresses
// through the record store.
func NewMailNotifier(store *RecordStore) *MailNotifier {
	return &MailNotifier{store: store}
}

// StatusChanged sends the notification in the background.
func (n *MailNotifier) StatusChanged(rmp *models.SafetyRMP, oldStatus string, actor Actor) {
	if rmp.ReviewerID == nil {
		return
	}

	reviewer, err := n.store.GetUser(*rmp.ReviewerID)
	if err != nil {
		log.Printf("status notification: reviewer lookup failed for rmp %s: %v", rmp.ID, err)
		return
	}

	subject := fmt.Sprintf("RMP %s: %s -> %s", rmp.ProjectName, oldStatus, rmp.Status)
	body := fmt.Sprintf(
		"<p>RMP <b>%s</b> moved from %s to <b>%s</b> by %s.</p>",
		rmp.ProjectName, oldStatus, rmp.Status, actor.Name,
	)

	go func() {
		if err := config.SendMail([]string{reviewer.Email}, subject, body); err != nil {
			log.Printf("status notification: send failed for rmp %s: %v", rmp.ID, err)
		}
	}()
}
