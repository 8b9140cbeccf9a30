package content

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// PostPage is the combined result of one listing window plus the total match
// count for the same filters.
type PostPage struct {
	Posts      []Post
	Page       int
	TotalCount int64
	TotalPages int
}

// Empty reports whether the filters matched no posts at all. This is the
// structured no-results signal: callers receive it with a nil error, unlike a
// transport failure which always surfaces as an error.
func (p PostPage) Empty() bool {
	return p.TotalCount == 0
}

// Pager orchestrates paginated post listings over the read repository.
type Pager struct {
	repo   Repository
	logger *logrus.Logger
}

// NewPager constructs the content filter and pager.
func NewPager(repo Repository, logger *logrus.Logger) (*Pager, error) {
	if repo == nil {
		return nil, eris.New("content repository is required")
	}

	return &Pager{repo: repo, logger: logger}, nil
}

// Fetch returns the requested page of posts together with the total match
// count. The page query and the count query run concurrently; if either
// fails the whole operation fails and no partial result is returned. A page
// number beyond the last page yields an empty result, not an error.
func (p *Pager) Fetch(ctx context.Context, query PostQuery, page int) (PostPage, error) {
	query = query.Normalize()

	window, err := WindowForPage(page)
	if err != nil {
		return PostPage{}, err
	}

	var (
		posts []Post
		count int64
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		listed, listErr := p.repo.ListPosts(groupCtx, query, window)
		if listErr != nil {
			return eris.Wrap(listErr, "fetching post page")
		}
		posts = listed
		return nil
	})
	group.Go(func() error {
		total, countErr := p.repo.CountPosts(groupCtx, query)
		if countErr != nil {
			return eris.Wrap(countErr, "fetching post count")
		}
		count = total
		return nil
	})

	if err := group.Wait(); err != nil {
		if p.logger != nil {
			p.logger.WithField("error", err.Error()).WithField("page", page).Error("paginated fetch failed")
		}
		return PostPage{}, err
	}

	if posts == nil {
		posts = []Post{}
	}

	return PostPage{
		Posts:      posts,
		Page:       page,
		TotalCount: count,
		TotalPages: totalPages(count),
	}, nil
}

func totalPages(count int64) int {
	return int((count + PageSize - 1) / PageSize)
}
