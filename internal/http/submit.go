package http

import (
	"context"
	stdhttp "net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"pressroom/app/internal/content"
)

type createAuthorInput struct {
	Body struct {
		Username  string `json:"username,omitempty"`
		FirstName string `json:"firstName,omitempty"`
		LastName  string `json:"lastName,omitempty"`
	}
}

type createAuthorResponse struct {
	Status int
	Body   struct {
		Success bool        `json:"success,omitempty"`
		Message string      `json:"message,omitempty"`
		Author  *authorView `json:"author,omitempty"`
		Error   string      `json:"error,omitempty"`
	}
}

type submitPostInput struct {
	Body struct {
		Title    string   `json:"title,omitempty"`
		Slug     string   `json:"slug,omitempty"`
		Summary  string   `json:"summary,omitempty"`
		Content  string   `json:"body,omitempty"`
		AuthorID string   `json:"authorId,omitempty"`
		Tags     []string `json:"tags,omitempty"`
		Featured bool     `json:"featured,omitempty"`
	}
}

type submitPostResponse struct {
	Status int
	Body   struct {
		Success bool      `json:"success,omitempty"`
		Message string    `json:"message,omitempty"`
		Post    *postView `json:"post,omitempty"`
		Error   string    `json:"error,omitempty"`
	}
}

func (s *Server) registerCreateAuthorRoute() {
	huma.Post(s.api, "/authors", s.createAuthorHandler, jsonOperation(
		"Create an author",
		stdhttp.StatusCreated,
		stdhttp.StatusBadRequest,
		stdhttp.StatusConflict,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerSubmitPostRoute() {
	huma.Post(s.api, "/posts", s.submitPostHandler, jsonOperation(
		"Submit a post for review",
		stdhttp.StatusCreated,
		stdhttp.StatusBadRequest,
		stdhttp.StatusConflict,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) createAuthorHandler(ctx context.Context, input *createAuthorInput) (*createAuthorResponse, error) {
	resp := &createAuthorResponse{}

	if strings.TrimSpace(input.Body.Username) == "" {
		resp.Status = stdhttp.StatusBadRequest
		resp.Body.Error = "Username is required"
		return resp, nil
	}
	if strings.TrimSpace(input.Body.FirstName) == "" {
		resp.Status = stdhttp.StatusBadRequest
		resp.Body.Error = "First name is required"
		return resp, nil
	}
	if strings.TrimSpace(input.Body.LastName) == "" {
		resp.Status = stdhttp.StatusBadRequest
		resp.Body.Error = "Last name is required"
		return resp, nil
	}

	person, err := s.writer.CreatePerson(ctx, content.PersonSubmission{
		Username:  input.Body.Username,
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
	})
	if err != nil {
		var conflict *content.UsernameConflictError
		if eris.As(err, &conflict) {
			existing := authorViewFrom(conflict.Existing)
			resp.Status = stdhttp.StatusConflict
			resp.Body.Error = "An author with this username already exists"
			resp.Body.Author = &existing
			return resp, nil
		}

		s.recordError(ctx, err, "creating author", logrus.Fields{"username": input.Body.Username})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = "Failed to create author"
		return resp, nil
	}

	created := authorViewFrom(*person)
	resp.Status = stdhttp.StatusCreated
	resp.Body.Success = true
	resp.Body.Author = &created
	resp.Body.Message = "Author created successfully"
	return resp, nil
}

func (s *Server) submitPostHandler(ctx context.Context, input *submitPostInput) (*submitPostResponse, error) {
	resp := &submitPostResponse{}

	if strings.TrimSpace(input.Body.Title) == "" ||
		strings.TrimSpace(input.Body.Slug) == "" ||
		strings.TrimSpace(input.Body.Content) == "" ||
		strings.TrimSpace(input.Body.AuthorID) == "" {
		resp.Status = stdhttp.StatusBadRequest
		resp.Body.Error = "Missing required fields: title, slug, body, or authorId"
		return resp, nil
	}

	post, err := s.writer.CreateDraftPost(ctx, content.PostSubmission{
		Title:    input.Body.Title,
		Slug:     input.Body.Slug,
		Summary:  input.Body.Summary,
		Body:     input.Body.Content,
		AuthorID: input.Body.AuthorID,
		Tags:     input.Body.Tags,
		Featured: input.Body.Featured,
	})
	if err != nil {
		if eris.Is(err, content.ErrSlugTaken) {
			resp.Status = stdhttp.StatusConflict
			resp.Body.Error = "A post with this slug already exists"
			return resp, nil
		}

		s.recordError(ctx, err, "submitting post", logrus.Fields{"slug": input.Body.Slug})
		resp.Status = stdhttp.StatusInternalServerError
		resp.Body.Error = "Failed to submit post"
		return resp, nil
	}

	view := postViewFrom(*post, nil)
	resp.Status = stdhttp.StatusCreated
	resp.Body.Success = true
	resp.Body.Post = &view
	resp.Body.Message = "Post created as draft and is pending review"
	return resp, nil
}
