package http

import (
	"time"

	"pressroom/app/internal/content"
)

const jsonContentType = "application/json"

type authorView struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Slug      string `json:"slug"`
	Headshot  string `json:"headshot,omitempty"`
}

type authorRef struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Picture   string `json:"picture,omitempty"`
}

type postView struct {
	ID         string     `json:"_id"`
	Status     string     `json:"status"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Excerpt    string     `json:"excerpt,omitempty"`
	Date       time.Time  `json:"date"`
	Tags       []string   `json:"tags,omitempty"`
	Featured   bool       `json:"featured"`
	CoverImage string     `json:"coverImage,omitempty"`
	Author     *authorRef `json:"author,omitempty"`
}

func authorViewFrom(person content.Person) authorView {
	return authorView{
		ID:        person.DocID,
		Username:  person.Username,
		FirstName: person.FirstName,
		LastName:  person.LastName,
		Slug:      person.Slug,
		Headshot:  person.Headshot,
	}
}

func postViewFrom(post content.Post, authors map[string]content.Person) postView {
	title := post.Title
	if title == "" {
		title = "Untitled"
	}

	view := postView{
		ID:         post.DocID,
		Status:     post.Status(),
		Title:      title,
		Slug:       post.Slug,
		Excerpt:    post.Excerpt,
		Date:       post.EffectiveDate(),
		Tags:       post.Tags,
		Featured:   post.Featured,
		CoverImage: post.CoverImage,
	}

	if author, ok := authors[post.AuthorID]; ok {
		view.Author = &authorRef{
			Username:  author.Username,
			FirstName: author.FirstName,
			LastName:  author.LastName,
			Picture:   author.Headshot,
		}
	}

	return view
}

func postViewsFrom(posts []content.Post, authors map[string]content.Person) []postView {
	views := make([]postView, 0, len(posts))
	for _, post := range posts {
		views = append(views, postViewFrom(post, authors))
	}
	return views
}

func authorDocIDs(posts []content.Post) []string {
	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		if post.AuthorID == "" {
			continue
		}
		if _, ok := seen[post.AuthorID]; ok {
			continue
		}
		seen[post.AuthorID] = struct{}{}
		ids = append(ids, post.AuthorID)
	}
	return ids
}
