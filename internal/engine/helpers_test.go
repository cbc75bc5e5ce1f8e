package engine

import (
	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/Priya8975/football-predictions/internal/notify"
	"github.com/Priya8975/football-predictions/internal/testutil"
)

type harness struct {
	store     *testutil.MemStore
	transport *testutil.FakeTransport
	writer    *notify.Writer
	fanout    *FanOutEngine
}

func newHarness() *harness {
	store := testutil.NewMemStore()
	transport := testutil.NewFakeTransport()
	logger := testutil.Logger()
	dispatcher := notify.NewDispatcher(transport, store, nil, notify.RateLimit{}, "https://tips.example.com", logger)
	writer := notify.NewWriter(store, dispatcher, nil, logger)
	return &harness{
		store:     store,
		transport: transport,
		writer:    writer,
		fanout:    NewFanOutEngine(store, writer, logger),
	}
}

func (h *harness) subscribe(planID, status string, users ...string) {
	for _, name := range users {
		u := h.store.AddUser(domain.User{ID: name, Email: name + "@example.com", FullName: name})
		h.store.AddSubscription(domain.Subscription{UserID: u.ID, PlanID: planID, PlanStatus: status})
	}
}
