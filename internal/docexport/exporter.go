// Package docexport turns session notes into Google Docs documents in the
// requesting user's account, reusing their calendar OAuth grant.
package docexport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/caseflowhq/caseflow/internal/calendar"
	"github.com/caseflowhq/caseflow/internal/sessions"
	"github.com/caseflowhq/caseflow/pkg/logging"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// ErrNothingToExport indicates the referenced note has no content.
var ErrNothingToExport = errors.New("docexport: note has no content")

// docsClient creates a document and fills in its body.
type docsClient interface {
	CreateDocument(ctx context.Context, conn *calendar.Connection, title, body string) (string, error)
}

// NoteSource fetches the note being exported.
type NoteSource interface {
	Get(ctx context.Context, id string) (*sessions.Note, error)
}

// Exporter exports session notes as Google Docs.
type Exporter struct {
	notes       NoteSource
	connections calendar.ConnectionStore
	docs        docsClient
	logger      *logging.Logger
}

// NewExporter wires an exporter against the Google Docs API.
func NewExporter(notes NoteSource, connections calendar.ConnectionStore, google *calendar.GoogleClient, logger *logging.Logger) *Exporter {
	if notes == nil || connections == nil || google == nil {
		panic("docexport: exporter requires notes, connections and google client")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Exporter{
		notes:       notes,
		connections: connections,
		docs:        &googleDocs{google: google},
		logger:      logger,
	}
}

// ExportResult reports a completed export.
type ExportResult struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
}

// ExportNote creates a document from one session note in the user's account.
// The user must have a calendar connection; its token carries the Docs scope.
func (e *Exporter) ExportNote(ctx context.Context, noteID, userID string) (*ExportResult, error) {
	conn, err := e.connections.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("docexport: resolve connection for %s: %w", userID, err)
	}

	note, err := e.notes.Get(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("docexport: fetch note %s: %w", noteID, err)
	}

	title, body := renderNote(note)
	if body == "" {
		return nil, ErrNothingToExport
	}

	docID, err := e.docs.CreateDocument(ctx, conn, title, body)
	if err != nil {
		return nil, fmt.Errorf("docexport: create document: %w", err)
	}

	e.logger.Info("session note exported", "note_id", noteID, "user_id", userID, "document_id", docID)
	return &ExportResult{DocumentID: docID, Title: title}, nil
}

// renderNote flattens a note into a document title and plain-text body.
func renderNote(n *sessions.Note) (title, body string) {
	title = n.Title
	if title == "" {
		title = "Session note " + n.ID
	}

	var b strings.Builder
	if n.ClientID != "" {
		fmt.Fprintf(&b, "Client: %s\n", n.ClientID)
	}
	if n.AppointmentID != "" {
		fmt.Fprintf(&b, "Appointment: %s\n", n.AppointmentID)
	}
	if n.CreatedAt != "" {
		fmt.Fprintf(&b, "Recorded: %s\n", n.CreatedAt)
	}
	if b.Len() > 0 && strings.TrimSpace(n.Body) != "" {
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimSpace(n.Body))
	return title, strings.TrimSpace(b.String())
}

// googleDocs is the production docs/v1 implementation.
type googleDocs struct {
	google *calendar.GoogleClient
}

func (g *googleDocs) CreateDocument(ctx context.Context, conn *calendar.Connection, title, body string) (string, error) {
	svc, err := docs.NewService(ctx, option.WithTokenSource(g.google.TokenSource(ctx, conn)))
	if err != nil {
		return "", err
	}

	doc, err := svc.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	_, err = svc.Documents.BatchUpdate(doc.DocumentId, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     body,
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return doc.DocumentId, nil
}
