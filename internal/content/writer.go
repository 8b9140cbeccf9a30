package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrSlugTaken indicates a post slug collides with an existing published post
// or pending draft.
var ErrSlugTaken = eris.New("a post with this slug already exists")

// UsernameConflictError reports that the slugified username is already in use.
// The existing author is attached so callers can offer it for reuse.
type UsernameConflictError struct {
	Existing Person
}

func (e *UsernameConflictError) Error() string {
	return fmt.Sprintf("an author with username %q already exists", e.Existing.Username)
}

// PostSubmission is the input for creating a draft post.
type PostSubmission struct {
	Title    string
	Slug     string
	Summary  string
	Body     string
	AuthorID string
	Tags     []string
	Featured bool
}

// PersonSubmission is the input for creating an author.
type PersonSubmission struct {
	Username  string
	FirstName string
	LastName  string
}

// Writer performs content mutations through an elevated database handle. It
// is constructed separately from the read repository and must never be wired
// into unauthenticated read paths.
type Writer struct {
	db     *gorm.DB
	logger *logrus.Logger
	now    func() time.Time
	newID  func() string
}

// NewWriter constructs the elevated write-side accessor.
func NewWriter(db *gorm.DB, logger *logrus.Logger) (*Writer, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Writer{
		db:     db,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// CreateDraftPost persists a submitted post inside the draft namespace. The
// slug pre-check is advisory fast feedback; the unique index on the document
// id and the editorial review step remain the final arbiters under
// concurrent submission.
func (w *Writer) CreateDraftPost(ctx context.Context, submission PostSubmission) (*Post, error) {
	slug := strings.TrimSpace(submission.Slug)
	if slug == "" {
		return nil, eris.New("post slug is required")
	}

	taken, err := w.slugInUse(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, eris.Wrapf(ErrSlugTaken, "slug %s", slug)
	}

	publishDate := w.now().UTC()
	post := &Post{
		DocID:       DraftPrefix + w.newID(),
		Title:       strings.TrimSpace(submission.Title),
		Slug:        slug,
		Excerpt:     strings.TrimSpace(submission.Summary),
		Body:        submission.Body,
		PublishDate: &publishDate,
		AuthorID:    strings.TrimSpace(submission.AuthorID),
		Tags:        TagSet(submission.Tags),
		Featured:    submission.Featured,
	}

	if err := w.db.WithContext(ctx).Create(post).Error; err != nil {
		w.logError(logrus.Fields{"slug": slug}, err, "creating draft post")
		return nil, eris.Wrapf(err, "creating draft post: %s", slug)
	}

	if w.logger != nil {
		w.logger.WithFields(logrus.Fields{"slug": slug, "doc_id": post.DocID}).Info("draft post created")
	}

	return post, nil
}

// CreatePerson persists a new author. The username pre-check is advisory; the
// unique index on the person slug resolves concurrent submissions, and a
// uniqueness violation surfaced by the store is reported as the same conflict.
func (w *Writer) CreatePerson(ctx context.Context, submission PersonSubmission) (*Person, error) {
	username := strings.TrimSpace(submission.Username)
	if username == "" {
		return nil, eris.New("username is required")
	}

	slug := Slugify(username)
	if slug == "" {
		return nil, eris.Errorf("username %q does not yield a valid slug", username)
	}

	existing, err := w.personBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &UsernameConflictError{Existing: *existing}
	}

	person := &Person{
		DocID:     w.newID(),
		Username:  username,
		Slug:      slug,
		FirstName: strings.TrimSpace(submission.FirstName),
		LastName:  strings.TrimSpace(submission.LastName),
	}

	if err := w.db.WithContext(ctx).Create(person).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the race between pre-check and insert.
			winner, lookupErr := w.personBySlug(ctx, slug)
			if lookupErr == nil && winner != nil {
				return nil, &UsernameConflictError{Existing: *winner}
			}
		}
		w.logError(logrus.Fields{"slug": slug}, err, "creating person")
		return nil, eris.Wrapf(err, "creating person: %s", slug)
	}

	return person, nil
}

// slugInUse checks the slug against published posts and pending drafts.
func (w *Writer) slugInUse(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := w.db.WithContext(ctx).
		Model(&Post{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		w.logError(logrus.Fields{"slug": slug}, err, "checking slug availability")
		return false, eris.Wrapf(err, "checking slug availability: %s", slug)
	}

	return count > 0, nil
}

func (w *Writer) personBySlug(ctx context.Context, slug string) (*Person, error) {
	var person Person
	err := w.db.WithContext(ctx).First(&person, "slug = ?", slug).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		w.logError(logrus.Fields{"slug": slug}, err, "checking username availability")
		return nil, eris.Wrapf(err, "checking username availability: %s", slug)
	}

	return &person, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (w *Writer) logError(fields logrus.Fields, err error, message string) {
	if w.logger == nil {
		return
	}

	entry := w.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
