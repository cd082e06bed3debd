package services

import (
	"sync"

	"mesero/internal/domain"
	"mesero/internal/repos"
)

// NotificationService backs the waitstaff board. Acknowledge is a local
// marker only — it is never written to the store — while complete persists.
type NotificationService struct {
	Notifs *repos.NotificationRepo

	mu    sync.Mutex
	acked map[string]bool
}

func NewNotificationService(notifs *repos.NotificationRepo) *NotificationService {
	return &NotificationService{Notifs: notifs, acked: make(map[string]bool)}
}

type BoardEntry struct {
	domain.Notification
	Acked bool
}

func (s *NotificationService) Board(fcfs bool) ([]BoardEntry, error) {
	pending, err := s.Notifs.ListPending(fcfs)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BoardEntry, 0, len(pending))
	for _, n := range pending {
		out = append(out, BoardEntry{Notification: n, Acked: s.acked[n.ID]})
	}
	return out, nil
}

func (s *NotificationService) Acknowledge(id string) {
	s.mu.Lock()
	s.acked[id] = true
	s.mu.Unlock()
}

func (s *NotificationService) Complete(id string) error {
	if err := s.Notifs.Complete(id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.acked, id)
	s.mu.Unlock()
	return nil
}
