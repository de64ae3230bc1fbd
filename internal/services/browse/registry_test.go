package browse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avolkau/sparkmatch/internal/domain/model"
)

func newTestSession(t *testing.T, userID string, source *stubSource) *Session {
	t.Helper()

	session, err := NewSession(Dependencies{
		UserID:    userID,
		Discovery: source,
		Quota:     &stubQuota{remaining: 5, nextReset: time.Now()},
		Resolver:  &stubResolver{},
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session
}

func TestRegistryReusesSessions(t *testing.T) {
	created := 0
	registry, err := NewRegistry(func(userID string) (*Session, error) {
		created++
		return newTestSession(t, userID, &stubSource{pool: []model.Candidate{card("c1")}}), nil
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	first, err := registry.Session(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	second, err := registry.Session(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if first != second {
		t.Fatal("registry must reuse the live session")
	}
	if created != 1 {
		t.Fatalf("expected one session, created %d", created)
	}

	if _, err := registry.Session(context.Background(), "user-2"); err != nil {
		t.Fatalf("other user session: %v", err)
	}
	if created != 2 {
		t.Fatalf("sessions must be per user, created %d", created)
	}
}

func TestRegistryDoesNotCacheFailedStart(t *testing.T) {
	source := &stubSource{refreshErr: errors.New("connection refused")}
	registry, err := NewRegistry(func(userID string) (*Session, error) {
		return newTestSession(t, userID, source), nil
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if _, err := registry.Session(context.Background(), "user-1"); err == nil {
		t.Fatal("expected start failure to surface")
	}

	source.refreshErr = nil
	source.pool = []model.Candidate{card("c1")}
	session, err := registry.Session(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("retry after failed start: %v", err)
	}
	if current, ok := session.CurrentCard(); !ok || current.ID != "c1" {
		t.Fatal("retried session must carry a fresh deck")
	}
}

func TestRegistrySlowStartDoesNotBlockOtherUsers(t *testing.T) {
	release := make(chan struct{})
	registry, err := NewRegistry(func(userID string) (*Session, error) {
		if userID == "slow-user" {
			<-release
		}
		return newTestSession(t, userID, &stubSource{pool: []model.Candidate{card("c1")}}), nil
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	slowDone := make(chan error, 1)
	go func() {
		_, err := registry.Session(context.Background(), "slow-user")
		slowDone <- err
	}()

	fastDone := make(chan error, 1)
	go func() {
		_, err := registry.Session(context.Background(), "fast-user")
		fastDone <- err
	}()

	select {
	case err := <-fastDone:
		if err != nil {
			t.Fatalf("fast user session: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fast user's lookup waited behind another user's session start")
	}

	close(release)
	if err := <-slowDone; err != nil {
		t.Fatalf("slow user session: %v", err)
	}
}

func TestRegistryConcurrentLookupsShareOneStart(t *testing.T) {
	created := 0
	entered := make(chan struct{})
	release := make(chan struct{})
	registry, err := NewRegistry(func(userID string) (*Session, error) {
		created++
		close(entered)
		<-release
		return newTestSession(t, userID, &stubSource{pool: []model.Candidate{card("c1")}}), nil
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	type lookup struct {
		session *Session
		err     error
	}
	first := make(chan lookup, 1)
	go func() {
		s, err := registry.Session(context.Background(), "user-1")
		first <- lookup{s, err}
	}()
	<-entered

	second := make(chan lookup, 1)
	go func() {
		s, err := registry.Session(context.Background(), "user-1")
		second <- lookup{s, err}
	}()
	close(release)

	a := <-first
	b := <-second
	if a.err != nil || b.err != nil {
		t.Fatalf("lookups failed: %v, %v", a.err, b.err)
	}
	if a.session != b.session {
		t.Fatal("concurrent lookups must share one session")
	}
	if created != 1 {
		t.Fatalf("expected one start, got %d", created)
	}
}

func TestRegistryEvictsIdleSessions(t *testing.T) {
	created := 0
	registry, err := NewRegistry(func(userID string) (*Session, error) {
		created++
		return newTestSession(t, userID, &stubSource{pool: []model.Candidate{card("c1")}}), nil
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	current := time.Now()
	registry.now = func() time.Time { return current }

	if _, err := registry.Session(context.Background(), "user-1"); err != nil {
		t.Fatalf("session: %v", err)
	}

	current = current.Add(sessionIdleTTL + time.Minute)
	if _, err := registry.Session(context.Background(), "user-2"); err != nil {
		t.Fatalf("second user session: %v", err)
	}

	if _, err := registry.Session(context.Background(), "user-1"); err != nil {
		t.Fatalf("session after eviction: %v", err)
	}
	if created != 3 {
		t.Fatalf("idle session must be rebuilt, created %d", created)
	}
}

func TestRegistryDrop(t *testing.T) {
	created := 0
	registry, err := NewRegistry(func(userID string) (*Session, error) {
		created++
		return newTestSession(t, userID, &stubSource{pool: []model.Candidate{card("c1")}}), nil
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if _, err := registry.Session(context.Background(), "user-1"); err != nil {
		t.Fatalf("session: %v", err)
	}
	registry.Drop("user-1")
	if _, err := registry.Session(context.Background(), "user-1"); err != nil {
		t.Fatalf("session after drop: %v", err)
	}
	if created != 2 {
		t.Fatalf("drop must force a rebuild, created %d", created)
	}
}
