package session

import (
	"sync"
	"testing"

	"github.com/freeliao/freeliao/internal/models"
)

func TestGetCreatesEmptyState(t *testing.T) {
	m := NewManager()

	st := m.Get("chat-1")
	if st.UserID != "" || st.Awaiting != AwaitingNone || st.Draft != nil {
		t.Errorf("fresh state = %+v, want zero value", st)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManager()
	m.SetDraft("chat-1", DraftJio{Kind: models.JioKindCustom, Title: "board games"})

	st := m.Get("chat-1")
	st.UserID = "mutated"
	st.Draft.Title = "mutated"

	again := m.Get("chat-1")
	if again.UserID != "" {
		t.Errorf("UserID = %q, mutation of the copy leaked into the manager", again.UserID)
	}
	if again.Draft == nil || again.Draft.Title != "board games" {
		t.Errorf("Draft = %+v, mutation of the copy leaked into the manager", again.Draft)
	}
}

func TestBindUser(t *testing.T) {
	m := NewManager()
	m.BindUser("chat-1", "u_abc")

	if got := m.Get("chat-1").UserID; got != "u_abc" {
		t.Errorf("UserID = %q, want u_abc", got)
	}
	if got := m.Get("chat-2").UserID; got != "" {
		t.Errorf("other conversation UserID = %q, want empty", got)
	}
}

func TestAwaitingLifecycle(t *testing.T) {
	m := NewManager()

	m.SetAwaiting("chat-1", AwaitingJioTitle)
	if got := m.Get("chat-1").Awaiting; got != AwaitingJioTitle {
		t.Fatalf("Awaiting = %q, want %q", got, AwaitingJioTitle)
	}

	m.ClearAwaiting("chat-1")
	if got := m.Get("chat-1").Awaiting; got != AwaitingNone {
		t.Errorf("Awaiting after clear = %q, want none", got)
	}
}

func TestAbandonFlowDiscardsDraftAndMarker(t *testing.T) {
	m := NewManager()
	m.BindUser("chat-1", "u_abc")
	m.SetDraft("chat-1", DraftJio{Kind: models.JioKindKopi, Title: "Kopi?"})
	m.SetAwaiting("chat-1", AwaitingJioLocation)

	m.AbandonFlow("chat-1")

	st := m.Get("chat-1")
	if st.Draft != nil {
		t.Errorf("Draft = %+v, want nil after abandon", st.Draft)
	}
	if st.Awaiting != AwaitingNone {
		t.Errorf("Awaiting = %q, want none after abandon", st.Awaiting)
	}
	if st.UserID != "u_abc" {
		t.Errorf("UserID = %q, abandon must not unbind the user", st.UserID)
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	m := NewManager()
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Update("chat-1", func(st *State) {
				if st.Draft == nil {
					st.Draft = &DraftJio{}
				}
				st.Draft.Title += "x"
			})
		}()
	}
	wg.Wait()

	st := m.Get("chat-1")
	if st.Draft == nil || len(st.Draft.Title) != n {
		t.Errorf("Draft.Title length = %d, want %d", len(st.Draft.Title), n)
	}
}
