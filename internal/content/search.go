package content

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// DefaultSearchQuiescence is how long a live search waits for further input
// before issuing the store query.
const DefaultSearchQuiescence = 250 * time.Millisecond

// Matcher answers substring searches over post titles and excerpts.
type Matcher struct {
	repo   Repository
	logger *logrus.Logger
}

// NewMatcher constructs the search matcher.
func NewMatcher(repo Repository, logger *logrus.Logger) (*Matcher, error) {
	if repo == nil {
		return nil, eris.New("content repository is required")
	}

	return &Matcher{repo: repo, logger: logger}, nil
}

// Search returns published posts whose title or excerpt contains the query.
// A blank query short-circuits to an empty result without touching the store.
func (m *Matcher) Search(ctx context.Context, query string) ([]Post, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []Post{}, nil
	}

	posts, err := m.repo.SearchPosts(ctx, trimmed)
	if err != nil {
		if m.logger != nil {
			m.logger.WithField("error", err.Error()).WithField("query", trimmed).Error("search failed")
		}
		return nil, eris.Wrapf(err, "searching posts: %s", trimmed)
	}

	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

// SearchOutcome is delivered for a live search query that ran to completion.
type SearchOutcome struct {
	Posts []Post
	Err   error
}

// LiveSearcher serialises rapid successive search queries: each submission
// cancels any query still pending or in flight, so only the newest query can
// deliver a result. Supersession cancels the outstanding request's context
// rather than discarding its response after the fact.
type LiveSearcher struct {
	matcher    *Matcher
	quiescence time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewLiveSearcher constructs a live searcher with the given quiescence
// window; zero or negative durations fall back to the default.
func NewLiveSearcher(matcher *Matcher, quiescence time.Duration) (*LiveSearcher, error) {
	if matcher == nil {
		return nil, eris.New("search matcher is required")
	}
	if quiescence <= 0 {
		quiescence = DefaultSearchQuiescence
	}

	return &LiveSearcher{matcher: matcher, quiescence: quiescence}, nil
}

// Submit schedules a search for the query. The returned channel receives at
// most one outcome and is closed without a value when the query is
// superseded by a newer submission.
func (l *LiveSearcher) Submit(parent context.Context, query string) <-chan SearchOutcome {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.mu.Unlock()

	outcome := make(chan SearchOutcome, 1)

	go func() {
		defer close(outcome)

		timer := time.NewTimer(l.quiescence)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		posts, err := l.matcher.Search(ctx, query)
		if ctx.Err() != nil {
			// Superseded while the store query was in flight.
			return
		}

		outcome <- SearchOutcome{Posts: posts, Err: err}
	}()

	return outcome
}

// Stop cancels any pending or in-flight query.
func (l *LiveSearcher) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
