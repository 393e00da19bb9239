package service

import (
	"context"
	"errors"
	"sync"

	"github.com/nimbuschat/nimbus/internal/core/domain"
)

// fakeClient records every event it receives.
type fakeClient struct {
	id     string
	userID domain.UserID

	mu       sync.Mutex
	events   []domain.Event
	failSend bool
	closed   bool
}

func newFakeClient(id string, user domain.UserID) *fakeClient {
	return &fakeClient{id: id, userID: user}
}

func (c *fakeClient) ID() string            { return c.id }
func (c *fakeClient) UserID() domain.UserID { return c.userID }

func (c *fakeClient) Send(ev domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend || c.closed {
		return errors.New("send failed")
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) named(name string) []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Event
	for _, ev := range c.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (c *fakeClient) count(name string) int {
	return len(c.named(name))
}

// failingMessageStore simulates an unreachable store.
type failingMessageStore struct{}

var errStoreDown = errors.New("store unreachable")

func (failingMessageStore) Save(ctx context.Context, msg *domain.Message) error {
	return errStoreDown
}

func (failingMessageStore) Get(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	return nil, errStoreDown
}

func (failingMessageStore) UpdateStatus(ctx context.Context, id domain.MessageID, status domain.MessageStatus) (*domain.Message, error) {
	return nil, errStoreDown
}

func (failingMessageStore) Delete(ctx context.Context, id domain.MessageID) error {
	return errStoreDown
}

func (failingMessageStore) HideFor(ctx context.Context, id domain.MessageID, user domain.UserID) error {
	return errStoreDown
}

// recordingPush captures dispatched notifications.
type recordingPush struct {
	mu       sync.Mutex
	notified []domain.PushNotification
	err      error
}

func (p *recordingPush) Dispatch(ctx context.Context, n domain.PushNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.notified = append(p.notified, n)
	return nil
}

func (p *recordingPush) all() []domain.PushNotification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.PushNotification, len(p.notified))
	copy(out, p.notified)
	return out
}
