// Package testutil provides in-memory fakes of the service's collaborators.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Priya8975/football-predictions/internal/domain"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("injected failure")

// MemStore is an in-memory implementation of every store method the
// engine, notify and api packages use.
type MemStore struct {
	mu sync.Mutex

	Users         map[string]*domain.User
	Plans         map[string]*domain.Plan
	Subscriptions []domain.Subscription
	Predictions   []domain.Prediction
	Notifications []domain.Notification

	// FailNotificationsFor makes notification inserts fail for these user ids.
	FailNotificationsFor map[string]bool
	InsertPredictionsErr error
	ExpireErr            error
	GetUserErr           error
	// ListSubscriptionsErr is consulted on every ListUserSubscriptions call
	// with the 1-based call number.
	ListSubscriptionsErr func(call int) error

	listSubscriptionCalls int
	writes                int
}

func NewMemStore() *MemStore {
	return &MemStore{
		Users:                make(map[string]*domain.User),
		Plans:                make(map[string]*domain.Plan),
		FailNotificationsFor: make(map[string]bool),
	}
}

// Writes returns the number of successful mutations.
func (m *MemStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemStore) AddUser(u domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.Users[u.ID] = &u
	return &u
}

func (m *MemStore) AddPlan(p domain.Plan) *domain.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.Plans[p.Slug] = &p
	return &p
}

func (m *MemStore) AddSubscription(s domain.Subscription) domain.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().Add(time.Duration(len(m.Subscriptions)) * time.Millisecond)
	}
	m.Subscriptions = append(m.Subscriptions, s)
	return s
}

// SubscriptionStatus returns the stored status of a subscription.
func (m *MemStore) SubscriptionStatus(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Subscriptions {
		if s.ID == id {
			return s.PlanStatus
		}
	}
	return ""
}

// NotificationsFor returns a copy of the user's notifications.
func (m *MemStore) NotificationsFor(userID string) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.Notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (m *MemStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetUserErr != nil {
		return nil, m.GetUserErr
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) UpdateAvatar(_ context.Context, userID, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[userID]
	if !ok {
		return fmt.Errorf("updating avatar: user %s not found", userID)
	}
	u.AvatarURL = avatarURL
	m.writes++
	return nil
}

func (m *MemStore) GetPlanBySlug(_ context.Context, slug string) (*domain.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Plans[slug]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) ListActiveSubscribers(_ context.Context, planID string) ([]domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := []domain.Subscriber{}
	for _, s := range m.Subscriptions {
		if s.PlanID != planID || s.PlanStatus != domain.StatusActive {
			continue
		}
		u, ok := m.Users[s.UserID]
		if !ok {
			continue
		}
		subs = append(subs, domain.Subscriber{
			SubscriptionID: s.ID,
			UserID:         u.ID,
			Email:          u.Email,
			FullName:       u.FullName,
		})
	}
	return subs, nil
}

func (m *MemStore) ListUserSubscriptions(_ context.Context, userID string) ([]domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listSubscriptionCalls++
	if m.ListSubscriptionsErr != nil {
		if err := m.ListSubscriptionsErr(m.listSubscriptionCalls); err != nil {
			return nil, err
		}
	}

	subs := []domain.Subscription{}
	for _, s := range m.Subscriptions {
		if s.UserID == userID {
			subs = append(subs, s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs, nil
}

func (m *MemStore) ExpireSubscription(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ExpireErr != nil {
		return false, m.ExpireErr
	}
	for i := range m.Subscriptions {
		if m.Subscriptions[i].ID == id && m.Subscriptions[i].PlanStatus == domain.StatusActive {
			m.Subscriptions[i].PlanStatus = domain.StatusExpired
			m.writes++
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) InsertPredictions(_ context.Context, predictions []domain.Prediction) ([]domain.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertPredictionsErr != nil {
		return nil, m.InsertPredictionsErr
	}
	inserted := make([]domain.Prediction, len(predictions))
	for i, p := range predictions {
		p.ID = uuid.NewString()
		p.CreatedAt = time.Now()
		inserted[i] = p
	}
	m.Predictions = append(m.Predictions, inserted...)
	m.writes++
	return inserted, nil
}

func (m *MemStore) CreateNotification(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNotificationsFor[n.UserID] {
		return ErrInjected
	}
	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = time.Now().Add(time.Duration(len(m.Notifications)) * time.Millisecond)
	m.Notifications = append(m.Notifications, *n)
	m.writes++
	return nil
}

func (m *MemStore) ListNotifications(_ context.Context, userID string, limit int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Notification{}
	for i := len(m.Notifications) - 1; i >= 0; i-- {
		if m.Notifications[i].UserID == userID {
			out = append(out, m.Notifications[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemStore) CountUnread(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.Notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MemStore) MarkRead(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Notifications {
		if m.Notifications[i].ID == id && m.Notifications[i].UserID == userID {
			m.Notifications[i].Read = true
			m.writes++
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var updated int64
	for i := range m.Notifications {
		if m.Notifications[i].UserID == userID && !m.Notifications[i].Read {
			m.Notifications[i].Read = true
			updated++
		}
	}
	if updated > 0 {
		m.writes++
	}
	return updated, nil
}

func (m *MemStore) DeleteNotification(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Notifications {
		if m.Notifications[i].ID == id && m.Notifications[i].UserID == userID {
			m.Notifications = append(m.Notifications[:i], m.Notifications[i+1:]...)
			m.writes++
			return true, nil
		}
	}
	return false, nil
}
