package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"pressroom/app/internal/blocks"
	"pressroom/app/internal/content"
	"pressroom/app/internal/db"
)

const (
	errorFallbackMessage = "We couldn't process your request right now."
	morePostsLimit       = 3
)

type listPostsInput struct {
	Page     int    `query:"page" doc:"1-based page number; defaults to 1"`
	Tag      string `query:"tag" doc:"restrict to posts carrying this tag"`
	Featured string `query:"featured" doc:"set to true or false to constrain the featured flag"`
}

type listPostsResponse struct {
	Status int
	Body   struct {
		Data       []postView `json:"data"`
		Page       int        `json:"page"`
		TotalCount int64      `json:"totalCount"`
		TotalPages int        `json:"totalPages"`
		Error      string     `json:"error,omitempty"`
	}
}

type postBySlugInput struct {
	Slug string `path:"slug"`
}

type postBySlugResponse struct {
	Status int
	Body   struct {
		Data      *postView  `json:"data,omitempty"`
		MorePosts []postView `json:"morePosts,omitempty"`
		Error     string     `json:"error,omitempty"`
	}
}

type searchInput struct {
	Query string `query:"q"`
}

type searchResponse struct {
	Status int
	Body   struct {
		Data  []postView `json:"data"`
		Error string     `json:"error,omitempty"`
	}
}

type tagsResponse struct {
	Status int
	Body   struct {
		Data  []string `json:"data"`
		Error string   `json:"error,omitempty"`
	}
}

type pageBySlugInput struct {
	Slug string `path:"slug"`
}

type pageBySlugResponse struct {
	Status int
	Body   struct {
		ID         string            `json:"_id,omitempty"`
		Slug       string            `json:"slug,omitempty"`
		Heading    string            `json:"heading,omitempty"`
		Subheading string            `json:"subheading,omitempty"`
		Blocks     []blocks.Rendered `json:"blocks,omitempty"`
		Error      string            `json:"error,omitempty"`
	}
}

type listAuthorsResponse struct {
	Status int
	Body   struct {
		Data  []authorView `json:"data"`
		Error string       `json:"error,omitempty"`
	}
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

func (s *Server) registerPostRoutes() {
	huma.Get(s.api, "/posts", s.listPostsHandler, jsonOperation(
		"List posts",
		stdhttp.StatusBadRequest,
		stdhttp.StatusInternalServerError,
	))
	huma.Get(s.api, "/posts/{slug}", s.postBySlugHandler, jsonOperation(
		"Fetch a published post",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
	s.registerSubmitPostRoute()
}

func (s *Server) registerAuthorRoutes() {
	huma.Get(s.api, "/authors", s.listAuthorsHandler, jsonOperation(
		"List authors",
		stdhttp.StatusInternalServerError,
	))
	s.registerCreateAuthorRoute()
}

func (s *Server) registerSearchRoute() {
	huma.Get(s.api, "/search/posts", s.searchPostsHandler, jsonOperation(
		"Search posts",
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerTagsRoute() {
	huma.Get(s.api, "/tags", s.tagsHandler, jsonOperation(
		"List tags",
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerPageRoute() {
	huma.Get(s.api, "/pages/{slug}", s.pageBySlugHandler, jsonOperation(
		"Fetch a page with rendered blocks",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) listPostsHandler(ctx context.Context, input *listPostsInput) (*listPostsResponse, error) {
	resp := &listPostsResponse{}

	page := input.Page
	if page < 1 {
		page = 1
	}

	query := content.PostQuery{}
	if strings.TrimSpace(input.Tag) != "" {
		query.Tag = content.TagFilter(input.Tag)
	}
	if strings.TrimSpace(input.Featured) != "" {
		featured, err := strconv.ParseBool(strings.TrimSpace(input.Featured))
		if err != nil {
			resp.Status = stdhttp.StatusBadRequest
			resp.Body.Data = []postView{}
			resp.Body.Error = "featured must be true or false"
			return resp, nil
		}
		query.Featured = content.FeaturedFilter(featured)
	}

	result, err := s.pager.Fetch(ctx, query, page)
	if err != nil {
		s.recordError(ctx, err, "fetching post page", logrus.Fields{"page": page})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Data = []postView{}
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	authors, err := s.repository.PersonsByDocIDs(ctx, authorDocIDs(result.Posts))
	if err != nil {
		s.recordError(ctx, err, "resolving post authors", logrus.Fields{"page": page})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Data = []postView{}
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	resp.Status = stdhttp.StatusOK
	resp.Body.Data = postViewsFrom(result.Posts, authors)
	resp.Body.Page = result.Page
	resp.Body.TotalCount = result.TotalCount
	resp.Body.TotalPages = result.TotalPages
	return resp, nil
}

func (s *Server) postBySlugHandler(ctx context.Context, input *postBySlugInput) (*postBySlugResponse, error) {
	resp := &postBySlugResponse{}
	slug := strings.TrimSpace(input.Slug)

	post, err := s.repository.GetPostBySlug(ctx, slug)
	if err != nil {
		s.recordError(ctx, err, "loading post", logrus.Fields{"slug": slug})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}
	if post == nil {
		resp.Status = stdhttp.StatusNotFound
		resp.Body.Error = "Post not found"
		return resp, nil
	}

	more, err := s.repository.MorePosts(ctx, content.MoreQuery{ExcludeDocID: post.DocID, Limit: morePostsLimit})
	if err != nil {
		s.recordError(ctx, err, "loading more posts", logrus.Fields{"slug": slug})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	involved := append([]content.Post{*post}, more...)
	authors, err := s.repository.PersonsByDocIDs(ctx, authorDocIDs(involved))
	if err != nil {
		s.recordError(ctx, err, "resolving post authors", logrus.Fields{"slug": slug})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	view := postViewFrom(*post, authors)
	resp.Status = stdhttp.StatusOK
	resp.Body.Data = &view
	resp.Body.MorePosts = postViewsFrom(more, authors)
	return resp, nil
}

func (s *Server) searchPostsHandler(ctx context.Context, input *searchInput) (*searchResponse, error) {
	resp := &searchResponse{}

	posts, err := s.matcher.Search(ctx, input.Query)
	if err != nil {
		s.recordError(ctx, err, "search request failed", logrus.Fields{"query": input.Query})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Data = []postView{}
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	authors, err := s.repository.PersonsByDocIDs(ctx, authorDocIDs(posts))
	if err != nil {
		s.recordError(ctx, err, "resolving search authors", logrus.Fields{"query": input.Query})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Data = []postView{}
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	resp.Status = stdhttp.StatusOK
	resp.Body.Data = postViewsFrom(posts, authors)
	return resp, nil
}

func (s *Server) tagsHandler(ctx context.Context, _ *struct{}) (*tagsResponse, error) {
	resp := &tagsResponse{}

	tags, err := s.repository.ListTags(ctx)
	if err != nil {
		s.recordError(ctx, err, "listing tags", nil)
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Data = []string{}
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	resp.Status = stdhttp.StatusOK
	resp.Body.Data = tags
	return resp, nil
}

func (s *Server) pageBySlugHandler(ctx context.Context, input *pageBySlugInput) (*pageBySlugResponse, error) {
	resp := &pageBySlugResponse{}
	slug := strings.TrimSpace(input.Slug)

	page, err := s.repository.GetPageBySlug(ctx, slug)
	if err != nil {
		s.recordError(ctx, err, "loading page", logrus.Fields{"slug": slug})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}
	if page == nil {
		resp.Status = stdhttp.StatusNotFound
		resp.Body.Error = "Page not found"
		return resp, nil
	}

	rendered, err := s.renderer.RenderSequence(ctx, page.DocID, "page", page.Blocks.Sequence)
	if err != nil {
		s.recordError(ctx, err, "rendering page blocks", logrus.Fields{"slug": slug})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	resp.Status = stdhttp.StatusOK
	resp.Body.ID = page.DocID
	resp.Body.Slug = page.Slug
	resp.Body.Heading = page.Heading
	resp.Body.Subheading = page.Subheading
	resp.Body.Blocks = rendered
	return resp, nil
}

func (s *Server) listAuthorsHandler(ctx context.Context, _ *struct{}) (*listAuthorsResponse, error) {
	resp := &listAuthorsResponse{}

	persons, err := s.repository.ListPersons(ctx)
	if err != nil {
		s.recordError(ctx, err, "listing authors", nil)
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Data = []authorView{}
		resp.Body.Error = errorFallbackMessage
		return resp, nil
	}

	views := make([]authorView, 0, len(persons))
	for _, person := range persons {
		views = append(views, authorViewFrom(person))
	}

	resp.Status = stdhttp.StatusOK
	resp.Body.Data = views
	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func jsonOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			if _, exists := op.Responses[code]; !exists {
				op.Responses[code] = &huma.Response{Description: stdhttp.StatusText(status)}
			}
		}
	}
}
