// Package release handles content release webhooks: publish, schedule and
// complete actions fan out to downstream revalidation and notification
// endpoints.
package release

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Action identifies the release lifecycle step a webhook reports.
type Action string

// Release actions dispatched by the webhook endpoint.
const (
	ActionPublish  Action = "publish"
	ActionSchedule Action = "schedule"
	ActionComplete Action = "complete"
)

// homeDocumentID is always revalidated after a publish so the landing page
// picks up released content.
const homeDocumentID = "home"

// Payload is the decoded release webhook body.
type Payload struct {
	ReleaseID   string   `json:"releaseId"`
	DocumentIDs []string `json:"documentIds,omitempty"`
	Action      Action   `json:"action"`
}

// Options configures the release dispatcher.
type Options struct {
	RevalidateURL string
	NotifyURL     string
	HTTPClient    *http.Client
	Logger        *logrus.Logger
}

// Dispatcher routes release webhook payloads to their action handlers and
// performs the downstream fan-out. Fan-out failures are logged individually
// and never escalated: the webhook's own action succeeding is what counts.
type Dispatcher struct {
	revalidateURL string
	notifyURL     string
	client        *http.Client
	logger        *logrus.Logger
}

// NewDispatcher constructs a release dispatcher.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Dispatcher{
		revalidateURL: opts.RevalidateURL,
		notifyURL:     opts.NotifyURL,
		client:        client,
		logger:        opts.Logger,
	}, nil
}

// Dispatch routes the payload by action. Unknown actions are logged and
// ignored; they are not errors.
func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload) {
	fields := logrus.Fields{
		"release_id": payload.ReleaseID,
		"action":     string(payload.Action),
		"documents":  len(payload.DocumentIDs),
	}
	if d.logger != nil {
		d.logger.WithFields(fields).Info("release webhook received")
	}

	switch payload.Action {
	case ActionPublish:
		d.handlePublish(ctx, payload)
	case ActionSchedule:
		d.notifyTeam(ctx, fmt.Sprintf("Release %s scheduled", payload.ReleaseID))
	case ActionComplete:
		d.notifyTeam(ctx, fmt.Sprintf("Release %s completed", payload.ReleaseID))
	default:
		if d.logger != nil {
			d.logger.WithFields(fields).Warn("release webhook received unknown action")
		}
	}
}

// handlePublish revalidates every released document plus the home document,
// then notifies the team. Each revalidation failure is caught and logged on
// its own.
func (d *Dispatcher) handlePublish(ctx context.Context, payload Payload) {
	var wg sync.WaitGroup
	for _, docID := range payload.DocumentIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := d.revalidateDocument(ctx, id); err != nil {
				d.logFanOutError(err, "revalidating document", logrus.Fields{"doc_id": id})
			}
		}(docID)
	}
	wg.Wait()

	if err := d.revalidateDocument(ctx, homeDocumentID); err != nil {
		d.logFanOutError(err, "revalidating document", logrus.Fields{"doc_id": homeDocumentID})
	}

	d.notifyTeam(ctx, fmt.Sprintf("Release %s published", payload.ReleaseID))
}

// revalidateDocument asks the downstream cache to rebuild one document.
func (d *Dispatcher) revalidateDocument(ctx context.Context, docID string) error {
	if d.revalidateURL == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{"docId": docID})
	if err != nil {
		return eris.Wrap(err, "encoding revalidation request")
	}

	if err := d.postJSON(ctx, d.revalidateURL, body); err != nil {
		return eris.Wrapf(err, "revalidating document: %s", docID)
	}

	if d.logger != nil {
		d.logger.WithField("doc_id", docID).Info("document revalidated")
	}
	return nil
}

// notifyTeam posts a message to the configured team notification webhook.
// Failures are logged, never returned.
func (d *Dispatcher) notifyTeam(ctx context.Context, message string) {
	if d.logger != nil {
		d.logger.WithField("message", message).Info("team notification")
	}
	if d.notifyURL == "" {
		return
	}

	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		d.logFanOutError(eris.Wrap(err, "encoding notification"), "notifying team", nil)
		return
	}

	if err := d.postJSON(ctx, d.notifyURL, body); err != nil {
		d.logFanOutError(eris.Wrap(err, "posting notification"), "notifying team", nil)
	}
}

func (d *Dispatcher) postJSON(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

func (d *Dispatcher) logFanOutError(err error, message string, fields logrus.Fields) {
	if d.logger == nil {
		return
	}
	entry := d.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
