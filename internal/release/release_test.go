package release

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

type capturingDownstream struct {
	mu     sync.Mutex
	docIDs []string
	texts  []string
	status int
}

func (c *capturingDownstream) revalidateHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocID string `json:"docId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	c.mu.Lock()
	c.docIDs = append(c.docIDs, body.DocID)
	c.mu.Unlock()

	if c.status != 0 {
		w.WriteHeader(c.status)
	}
}

func (c *capturingDownstream) notifyHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	c.mu.Lock()
	c.texts = append(c.texts, body.Text)
	c.mu.Unlock()
}

func (c *capturingDownstream) revalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := append([]string(nil), c.docIDs...)
	sort.Strings(ids)
	return ids
}

func (c *capturingDownstream) notifications() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func newTestDispatcher(t *testing.T, downstream *capturingDownstream) *Dispatcher {
	t.Helper()

	revalidate := httptest.NewServer(http.HandlerFunc(downstream.revalidateHandler))
	notify := httptest.NewServer(http.HandlerFunc(downstream.notifyHandler))
	t.Cleanup(revalidate.Close)
	t.Cleanup(notify.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dispatcher, err := NewDispatcher(Options{
		RevalidateURL: revalidate.URL,
		NotifyURL:     notify.URL,
		Logger:        logger,
	})
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}

	return dispatcher
}

func TestDispatchPublishRevalidatesEveryDocumentPlusHome(t *testing.T) {
	t.Parallel()

	downstream := &capturingDownstream{}
	dispatcher := newTestDispatcher(t, downstream)

	dispatcher.Dispatch(context.Background(), Payload{
		ReleaseID:   "r1",
		DocumentIDs: []string{"doc-a", "doc-b"},
		Action:      ActionPublish,
	})

	expected := []string{"doc-a", "doc-b", "home"}
	got := downstream.revalidated()
	if len(got) != len(expected) {
		t.Fatalf("expected revalidations %v, got %v", expected, got)
	}
	for idx, id := range expected {
		if got[idx] != id {
			t.Fatalf("expected revalidations %v, got %v", expected, got)
		}
	}

	notes := downstream.notifications()
	if len(notes) != 1 || notes[0] != "Release r1 published" {
		t.Fatalf("expected publish notification, got %v", notes)
	}
}

func TestDispatchPublishSurvivesDownstreamFailures(t *testing.T) {
	t.Parallel()

	downstream := &capturingDownstream{status: http.StatusInternalServerError}
	dispatcher := newTestDispatcher(t, downstream)

	// Failures are logged per document; Dispatch itself never escalates.
	dispatcher.Dispatch(context.Background(), Payload{
		ReleaseID:   "r2",
		DocumentIDs: []string{"doc-a"},
		Action:      ActionPublish,
	})

	notes := downstream.notifications()
	if len(notes) != 1 || notes[0] != "Release r2 published" {
		t.Fatalf("expected team notification despite failed revalidations, got %v", notes)
	}
}

func TestDispatchScheduleNotifiesWithoutRevalidating(t *testing.T) {
	t.Parallel()

	downstream := &capturingDownstream{}
	dispatcher := newTestDispatcher(t, downstream)

	dispatcher.Dispatch(context.Background(), Payload{ReleaseID: "r3", Action: ActionSchedule})

	if len(downstream.revalidated()) != 0 {
		t.Fatalf("expected no revalidations for schedule, got %v", downstream.revalidated())
	}
	notes := downstream.notifications()
	if len(notes) != 1 || notes[0] != "Release r3 scheduled" {
		t.Fatalf("expected schedule notification, got %v", notes)
	}
}

func TestDispatchCompleteNotifies(t *testing.T) {
	t.Parallel()

	downstream := &capturingDownstream{}
	dispatcher := newTestDispatcher(t, downstream)

	dispatcher.Dispatch(context.Background(), Payload{ReleaseID: "r4", Action: ActionComplete})

	notes := downstream.notifications()
	if len(notes) != 1 || notes[0] != "Release r4 completed" {
		t.Fatalf("expected complete notification, got %v", notes)
	}
}

func TestDispatchIgnoresUnknownActions(t *testing.T) {
	t.Parallel()

	downstream := &capturingDownstream{}
	dispatcher := newTestDispatcher(t, downstream)

	dispatcher.Dispatch(context.Background(), Payload{ReleaseID: "r5", Action: Action("unpublish")})

	if len(downstream.revalidated()) != 0 || len(downstream.notifications()) != 0 {
		t.Fatalf("expected no downstream calls for unknown action")
	}
}

func TestDispatcherWithoutDownstreamURLsIsANoOp(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dispatcher, err := NewDispatcher(Options{Logger: logger})
	if err != nil {
		t.Fatalf("NewDispatcher returned error: %v", err)
	}

	dispatcher.Dispatch(context.Background(), Payload{
		ReleaseID:   "r6",
		DocumentIDs: []string{"doc-a"},
		Action:      ActionPublish,
	})
}
