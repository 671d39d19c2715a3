package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/types"
	"github.com/docket-labs/docket/pkg/repository/memory"
)

// recordedEvent is one captured push
type recordedEvent struct {
	Channel types.Channel
	Event   string
	Payload any
}

// recordPublisher captures every push for assertion
type recordPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

var _ interfaces.Publisher = &recordPublisher{}

func (p *recordPublisher) Publish(channel types.Channel, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Channel: channel, Event: event, Payload: payload})
}

func (p *recordPublisher) all() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]recordedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *recordPublisher) on(channel types.Channel, event string) []recordedEvent {
	var out []recordedEvent
	for _, e := range p.all() {
		if e.Channel == channel && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// waitFor polls until the condition holds, for state written by async fanout
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	gt.Bool(t, cond()).True()
}

func clientIdent(id types.UserID) *auth.Identity {
	return &auth.Identity{UserID: id, Role: types.RoleClient}
}

func staffIdent(id types.UserID) *auth.Identity {
	return &auth.Identity{UserID: id, Role: types.RoleStaff}
}

func adminIdent(id types.UserID) *auth.Identity {
	return &auth.Identity{UserID: id, Role: types.RoleAdmin}
}

// seedCase creates a case owned by client-1
func seedCase(t *testing.T, repo interfaces.Repository, staffIDs ...types.UserID) *model.Case {
	t.Helper()
	c, err := repo.Case().Create(context.Background(), &model.Case{
		Title:            "Residence permit",
		OwnerID:          "client-1",
		AssignedStaffIDs: staffIDs,
	})
	gt.NoError(t, err).Required()
	return c
}

func newMemoryRepo() interfaces.Repository {
	return memory.New()
}
