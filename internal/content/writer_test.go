package content

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func TestNewWriterRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewWriter(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestCreateDraftPostNamespacesDocumentID(t *testing.T) {
	t.Parallel()

	writer, _ := setupWriter(t)
	ctx := context.Background()

	post, err := writer.CreateDraftPost(ctx, PostSubmission{
		Title:    "First Post",
		Slug:     "first-post",
		Body:     "Hello",
		AuthorID: "author-1",
		Tags:     []string{"go"},
	})
	if err != nil {
		t.Fatalf("CreateDraftPost returned error: %v", err)
	}

	if !strings.HasPrefix(post.DocID, DraftPrefix) {
		t.Fatalf("expected doc id inside draft namespace, got %q", post.DocID)
	}
	if post.Status() != StatusDraft {
		t.Fatalf("expected draft status, got %q", post.Status())
	}
	if post.PublishDate == nil {
		t.Fatalf("expected publish date to be set")
	}
	if time.Since(*post.PublishDate) > time.Minute {
		t.Fatalf("expected publish date near now, got %v", post.PublishDate)
	}
}

func TestCreateDraftPostRejectsTakenSlug(t *testing.T) {
	t.Parallel()

	writer, gormDB := setupWriter(t)
	ctx := context.Background()

	seedPost(t, gormDB, Post{DocID: "existing", Title: "Existing", Slug: "taken"})

	_, err := writer.CreateDraftPost(ctx, PostSubmission{
		Title:    "Copy",
		Slug:     "taken",
		Body:     "Body",
		AuthorID: "author-1",
	})
	if !eris.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestCreateDraftPostRejectsSlugHeldByPendingDraft(t *testing.T) {
	t.Parallel()

	writer, _ := setupWriter(t)
	ctx := context.Background()

	submission := PostSubmission{Title: "Pending", Slug: "pending", Body: "Body", AuthorID: "author-1"}
	if _, err := writer.CreateDraftPost(ctx, submission); err != nil {
		t.Fatalf("CreateDraftPost returned error: %v", err)
	}

	if _, err := writer.CreateDraftPost(ctx, submission); !eris.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken for slug held by a draft, got %v", err)
	}
}

func TestCreateDraftPostRequiresSlug(t *testing.T) {
	t.Parallel()

	writer, _ := setupWriter(t)
	if _, err := writer.CreateDraftPost(context.Background(), PostSubmission{Title: "No slug"}); err == nil {
		t.Fatalf("expected error for missing slug")
	}
}

func TestCreatePersonSlugifiesUsername(t *testing.T) {
	t.Parallel()

	writer, _ := setupWriter(t)
	ctx := context.Background()

	person, err := writer.CreatePerson(ctx, PersonSubmission{
		Username:  "Ada Lovelace",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("CreatePerson returned error: %v", err)
	}

	if person.Slug != "ada-lovelace" {
		t.Fatalf("expected slug 'ada-lovelace', got %q", person.Slug)
	}
	if person.Username != "Ada Lovelace" {
		t.Fatalf("expected username preserved, got %q", person.Username)
	}
	if person.DocID == "" {
		t.Fatalf("expected generated doc id")
	}
}

func TestCreatePersonReportsConflictWithExistingAuthor(t *testing.T) {
	t.Parallel()

	writer, _ := setupWriter(t)
	ctx := context.Background()

	first, err := writer.CreatePerson(ctx, PersonSubmission{Username: "ada", FirstName: "Ada", LastName: "L"})
	if err != nil {
		t.Fatalf("CreatePerson returned error: %v", err)
	}

	_, err = writer.CreatePerson(ctx, PersonSubmission{Username: "Ada", FirstName: "Someone", LastName: "Else"})

	var conflict *UsernameConflictError
	if !eris.As(err, &conflict) {
		t.Fatalf("expected UsernameConflictError, got %v", err)
	}
	if conflict.Existing.DocID != first.DocID {
		t.Fatalf("expected conflict to echo the existing author, got %+v", conflict.Existing)
	}
}

func TestCreatePersonReportsConflictOnInsertRace(t *testing.T) {
	t.Parallel()

	writer, gormDB := setupWriter(t)
	ctx := context.Background()

	// Simulate losing the race: the winner appears after the advisory
	// pre-check but before the insert lands.
	calls := 0
	writer.newID = func() string {
		calls++
		if calls == 1 {
			seedWinner(t, gormDB)
		}
		return "loser-id"
	}

	_, err := writer.CreatePerson(ctx, PersonSubmission{Username: "grace", FirstName: "Grace", LastName: "H"})

	var conflict *UsernameConflictError
	if !eris.As(err, &conflict) {
		t.Fatalf("expected UsernameConflictError after losing insert race, got %v", err)
	}
	if conflict.Existing.DocID != "winner-id" {
		t.Fatalf("expected winner echoed in conflict, got %+v", conflict.Existing)
	}
}

func TestCreatePersonRequiresUsername(t *testing.T) {
	t.Parallel()

	writer, _ := setupWriter(t)
	if _, err := writer.CreatePerson(context.Background(), PersonSubmission{Username: "  "}); err == nil {
		t.Fatalf("expected error for blank username")
	}
	if _, err := writer.CreatePerson(context.Background(), PersonSubmission{Username: "!!!"}); err == nil {
		t.Fatalf("expected error for username with no slug characters")
	}
}

func seedWinner(t *testing.T, gormDB *gorm.DB) {
	t.Helper()

	winner := &Person{DocID: "winner-id", Username: "grace", Slug: "grace"}
	if err := gormDB.Create(winner).Error; err != nil {
		t.Fatalf("seeding winner failed: %v", err)
	}
}

func setupWriter(t *testing.T) (*Writer, *gorm.DB) {
	t.Helper()

	gormDB := setupDatabase(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	writer, err := NewWriter(gormDB, logger)
	if err != nil {
		t.Fatalf("NewWriter returned error: %v", err)
	}

	return writer, gormDB
}
