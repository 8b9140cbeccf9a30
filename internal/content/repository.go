package content

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository defines the read-only persistence operations over content
// documents. Implementations must never expose write access; mutations go
// through the elevated Writer.
type Repository interface {
	ListPosts(ctx context.Context, query PostQuery, window Window) ([]Post, error)
	CountPosts(ctx context.Context, query PostQuery) (int64, error)
	MorePosts(ctx context.Context, query MoreQuery) ([]Post, error)
	SearchPosts(ctx context.Context, term string) ([]Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*Post, error)
	GetPageBySlug(ctx context.Context, slug string) (*Page, error)
	GetPersonByDocID(ctx context.Context, docID string) (*Person, error)
	PersonsByDocIDs(ctx context.Context, docIDs []string) (map[string]Person, error)
	ListPersons(ctx context.Context) ([]Person, error)
	ListTags(ctx context.Context) ([]string, error)
}

// GormRepository reads content documents through a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed read repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// ListPosts returns the window of publicly listable posts matching the
// filters, ordered by effective date descending.
func (r *GormRepository) ListPosts(ctx context.Context, query PostQuery, window Window) ([]Post, error) {
	query = query.Normalize()
	if window.Size() <= 0 {
		return nil, eris.Errorf("window end (%d) must exceed start (%d)", window.End, window.Start)
	}

	posts := make([]Post, 0, window.Size())
	err := r.db.WithContext(ctx).
		Scopes(publishedScope, filterScope(query), windowScope(window)).
		Order(effectiveDateOrder).
		Find(&posts).Error
	if err != nil {
		r.logError(logrus.Fields{"start": window.Start, "end": window.End}, err, "listing posts")
		return nil, eris.Wrap(err, "listing posts")
	}

	return posts, nil
}

// CountPosts counts the publicly listable posts matching the filters.
func (r *GormRepository) CountPosts(ctx context.Context, query PostQuery) (int64, error) {
	query = query.Normalize()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&Post{}).
		Scopes(publishedScope, filterScope(query)).
		Count(&count).Error
	if err != nil {
		r.logError(nil, err, "counting posts")
		return 0, eris.Wrap(err, "counting posts")
	}

	return count, nil
}

// MorePosts returns the most recent published posts excluding the given
// document, capped at the requested limit.
func (r *GormRepository) MorePosts(ctx context.Context, query MoreQuery) ([]Post, error) {
	if query.Limit <= 0 {
		return []Post{}, nil
	}

	posts := make([]Post, 0, query.Limit)
	err := r.db.WithContext(ctx).
		Scopes(publishedScope).
		Where("doc_id <> ?", query.ExcludeDocID).
		Order(effectiveDateOrder).
		Limit(query.Limit).
		Find(&posts).Error
	if err != nil {
		r.logError(logrus.Fields{"exclude": query.ExcludeDocID}, err, "listing more posts")
		return nil, eris.Wrap(err, "listing more posts")
	}

	return posts, nil
}

// SearchPosts returns published posts whose title or excerpt contains the
// term, using the store's native wildcard matching.
func (r *GormRepository) SearchPosts(ctx context.Context, term string) ([]Post, error) {
	pattern := searchPattern(term)

	var posts []Post
	err := r.db.WithContext(ctx).
		Scopes(publishedScope).
		Where("title LIKE ? ESCAPE '\\' OR excerpt LIKE ? ESCAPE '\\'", pattern, pattern).
		Order(effectiveDateOrder).
		Find(&posts).Error
	if err != nil {
		r.logError(logrus.Fields{"term": term}, err, "searching posts")
		return nil, eris.Wrap(err, "searching posts")
	}

	return posts, nil
}

// GetPostBySlug returns the published post for the slug or nil when not found.
func (r *GormRepository) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	var post Post
	err := r.db.WithContext(ctx).
		Scopes(publishedScope).
		First(&post, "slug = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"slug": trimmed}, err, "fetching post by slug")
		return nil, eris.Wrapf(err, "fetching post by slug: %s", trimmed)
	}

	return &post, nil
}

// GetPageBySlug returns the page for the slug or nil when not found.
func (r *GormRepository) GetPageBySlug(ctx context.Context, slug string) (*Page, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	var page Page
	err := r.db.WithContext(ctx).First(&page, "slug = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"slug": trimmed}, err, "fetching page by slug")
		return nil, eris.Wrapf(err, "fetching page by slug: %s", trimmed)
	}

	return &page, nil
}

// GetPersonByDocID returns the person for the document id or nil when not found.
func (r *GormRepository) GetPersonByDocID(ctx context.Context, docID string) (*Person, error) {
	trimmed := strings.TrimSpace(docID)
	if trimmed == "" {
		return nil, eris.New("person doc id is required")
	}

	var person Person
	err := r.db.WithContext(ctx).First(&person, "doc_id = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"doc_id": trimmed}, err, "fetching person")
		return nil, eris.Wrapf(err, "fetching person: %s", trimmed)
	}

	return &person, nil
}

// PersonsByDocIDs resolves the authors referenced by a batch of posts.
func (r *GormRepository) PersonsByDocIDs(ctx context.Context, docIDs []string) (map[string]Person, error) {
	resolved := make(map[string]Person, len(docIDs))
	if len(docIDs) == 0 {
		return resolved, nil
	}

	var persons []Person
	err := r.db.WithContext(ctx).Where("doc_id IN ?", docIDs).Find(&persons).Error
	if err != nil {
		r.logError(nil, err, "resolving persons")
		return nil, eris.Wrap(err, "resolving persons")
	}

	for _, person := range persons {
		resolved[person.DocID] = person
	}
	return resolved, nil
}

// ListPersons returns every author ordered by username.
func (r *GormRepository) ListPersons(ctx context.Context) ([]Person, error) {
	var persons []Person
	err := r.db.WithContext(ctx).Order("username ASC").Find(&persons).Error
	if err != nil {
		r.logError(nil, err, "listing persons")
		return nil, eris.Wrap(err, "listing persons")
	}

	return persons, nil
}

// ListTags returns the distinct tags used across published posts, sorted
// alphabetically.
func (r *GormRepository) ListTags(ctx context.Context) ([]string, error) {
	var tagColumns []TagSet
	err := r.db.WithContext(ctx).
		Model(&Post{}).
		Scopes(publishedScope).
		Where("tags <> '' AND tags <> '[]'").
		Pluck("tags", &tagColumns).Error
	if err != nil {
		r.logError(nil, err, "listing tags")
		return nil, eris.Wrap(err, "listing tags")
	}

	seen := make(map[string]struct{})
	unique := make([]string, 0)
	for _, set := range tagColumns {
		for _, tag := range set {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			unique = append(unique, tag)
		}
	}
	sort.Strings(unique)

	return unique, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
