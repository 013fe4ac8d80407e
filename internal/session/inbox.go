package session

import (
	"slices"
	"sync"

	"storefront/internal/model"
)

// Inbox is the session's copy of the notification history.
type Inbox struct {
	mu            sync.Mutex
	notifications []model.Notification
	unread        int
}

// Replace swaps in a freshly fetched feed.
func (in *Inbox) Replace(feed model.NotificationFeed) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.notifications = slices.Clone(feed.Notifications)
	in.unread = max(feed.UnreadCount, 0)
}

// Feed returns a copy of the inbox.
func (in *Inbox) Feed() model.NotificationFeed {
	in.mu.Lock()
	defer in.mu.Unlock()
	list := slices.Clone(in.notifications)
	if list == nil {
		list = []model.Notification{}
	}
	return model.NotificationFeed{Notifications: list, UnreadCount: in.unread}
}

// MarkRead marks id read ahead of the backend confirming it. The unread
// count drops by one unless the notification was already read, and never
// goes below zero.
func (in *Inbox) MarkRead(id string) model.NotificationFeed {
	in.mu.Lock()
	alreadyRead := false
	for i := range in.notifications {
		if in.notifications[i].ID == id {
			alreadyRead = in.notifications[i].Read
			in.notifications[i].Read = true
			break
		}
	}
	if !alreadyRead {
		in.unread = max(in.unread-1, 0)
	}
	in.mu.Unlock()
	return in.Feed()
}
