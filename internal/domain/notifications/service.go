package notifications

import (
	"context"
	"fmt"

	"kpitrack/internal/platform/events"
)

type Service struct {
	store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{store: store}
}

// HandleEvent is subscribed to the change bus. It renders the event into a
// stored notification for the assignee; unknown kinds are ignored so new
// event kinds cannot break delivery.
func (s *Service) HandleEvent(ctx context.Context, event events.Event) error {
	if event.AssigneeID == "" {
		return nil
	}

	n := Notification{
		RecipientID: event.AssigneeID,
		RecordID:    event.RecordID,
	}
	switch event.Kind {
	case events.KindAssigned:
		n.Type = TypeKpiAssigned
		n.Title = "New KPI assigned"
		n.Body = fmt.Sprintf("%q was assigned to you for %s.", event.KpiName, event.Period)
	case events.KindProgressUpdated:
		n.Type = TypeProgressUpdated
		n.Title = "KPI progress updated"
		n.Body = fmt.Sprintf("Progress on %q for %s was updated.", event.KpiName, event.Period)
	case events.KindSubmitted:
		n.Type = TypeKpiSubmitted
		n.Title = "KPI submitted for approval"
		n.Body = fmt.Sprintf("%q for %s is awaiting approval.", event.KpiName, event.Period)
	case events.KindDecided:
		if event.Outcome == "approved" {
			n.Type = TypeKpiApproved
			n.Title = "KPI approved"
			n.Body = fmt.Sprintf("%q for %s was approved.", event.KpiName, event.Period)
		} else {
			n.Type = TypeKpiRejected
			n.Title = "KPI rejected"
			n.Body = fmt.Sprintf("%q for %s was rejected. Please review and resubmit.", event.KpiName, event.Period)
		}
	case events.KindDeadlineApproaching:
		n.Type = TypeDeadlineApproaching
		n.Title = "KPI deadline approaching"
		n.Body = fmt.Sprintf("%q for %s is due in %d day(s).", event.KpiName, event.Period, event.DaysLeft)
	case events.KindOverdue:
		n.Type = TypeKpiOverdue
		n.Title = "KPI overdue"
		n.Body = fmt.Sprintf("%q for %s passed its deadline without approval.", event.KpiName, event.Period)
	case events.KindBonusPenaltyIssued:
		if event.EntryType == "penalty" {
			n.Type = TypePenaltyIssued
			n.Title = "Penalty applied"
			n.Body = fmt.Sprintf("A penalty of %s was applied for %q (%s).", event.Amount.StringFixed(2), event.KpiName, event.Period)
		} else {
			n.Type = TypeBonusIssued
			n.Title = "Bonus awarded"
			n.Body = fmt.Sprintf("A bonus of %s was awarded for %q (%s).", event.Amount.StringFixed(2), event.KpiName, event.Period)
		}
	default:
		return nil
	}

	return s.store.CreateNotification(ctx, n)
}

func (s *Service) List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListNotifications(ctx, recipientID, unreadOnly, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, recipientID string) (int, error) {
	return s.store.CountUnread(ctx, recipientID)
}

func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.store.MarkRead(ctx, recipientID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID string) error {
	return s.store.MarkAllRead(ctx, recipientID)
}
