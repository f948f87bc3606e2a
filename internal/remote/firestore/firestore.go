// Package firestore adapts the remote document store. Budget snapshots
// live one per group under budgets/{groupKey}, the layout the mobile
// clients already use, with the state JSON in a single string field so
// reads and writes stay whole-document (last write wins, no merging).
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/store"

	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
)

const defaultCollection = "budgets"

type Config struct {
	ProjectID  string
	DatabaseID string // "(default)" unless set
	Collection string

	// Either a service-account file path or inline JSON; ADC when both
	// are empty.
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc        *firestore.Service
	projectID  string
	databaseID string
	collection string
}

// Ensure interface conformance
var (
	_ store.StateStore   = (*Client)(nil)
	_ store.GroupLister  = (*Client)(nil)
	_ store.RemotePusher = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("missing Firestore project id")
	}
	if cfg.DatabaseID == "" {
		cfg.DatabaseID = "(default)"
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}

	var opts []goption.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, goption.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := firestore.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore service: %w", err)
	}

	return &Client{
		svc:        svc,
		projectID:  cfg.ProjectID,
		databaseID: cfg.DatabaseID,
		collection: cfg.Collection,
	}, nil
}

// NewFromEnv creates a client from FIRESTORE_PROJECT_ID and friends,
// falling back to application default credentials.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Config{
		ProjectID:       strings.TrimSpace(os.Getenv("FIRESTORE_PROJECT_ID")),
		DatabaseID:      strings.TrimSpace(os.Getenv("FIRESTORE_DATABASE_ID")),
		Collection:      strings.TrimSpace(os.Getenv("FIRESTORE_COLLECTION")),
		CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
	})
}

func (c *Client) documentsRoot() string {
	return fmt.Sprintf("projects/%s/databases/%s/documents", c.projectID, c.databaseID)
}

func (c *Client) documentName(key string) string {
	return c.documentsRoot() + "/" + c.collection + "/" + key
}

// LoadState implements store.StateLoader against the remote store.
func (c *Client) LoadState(ctx context.Context, key string) (core.BudgetState, bool, error) {
	doc, err := c.svc.Projects.Databases.Documents.Get(c.documentName(key)).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return core.BudgetState{}, false, nil
		}
		return core.BudgetState{}, false, fmt.Errorf("get document: %w", err)
	}

	state, _, err := decodeDocument(doc)
	if err != nil {
		return core.BudgetState{}, false, fmt.Errorf("decode document %s: %w", key, err)
	}
	return store.Normalize(state), true, nil
}

// SaveState implements store.StateSaver: read the current revision, bump
// it and overwrite the document. Concurrent writers race under
// last-write-wins, which is the contract.
func (c *Client) SaveState(ctx context.Context, key string, state core.BudgetState) (int64, error) {
	revision := int64(1)
	doc, err := c.svc.Projects.Databases.Documents.Get(c.documentName(key)).Context(ctx).Do()
	if err == nil {
		if _, rev, derr := decodeDocument(doc); derr == nil {
			revision = rev + 1
		}
	} else if !isNotFound(err) {
		return 0, fmt.Errorf("get document: %w", err)
	}

	if err := c.PushState(ctx, key, state, revision); err != nil {
		return 0, err
	}
	return revision, nil
}

// PushState implements store.RemotePusher: whole-document overwrite with
// the given revision stamped in.
func (c *Client) PushState(ctx context.Context, key string, state core.BudgetState, revision int64) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	updatedAt := time.Now().UTC().Format(time.RFC3339)
	doc := &firestore.Document{
		Fields: map[string]firestore.Value{
			"state":     {StringValue: string(raw)},
			"revision":  {IntegerValue: revision},
			"updatedAt": {TimestampValue: updatedAt},
		},
	}

	_, err = c.svc.Projects.Databases.Documents.Patch(c.documentName(key), doc).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("patch document: %w", err)
	}

	slog.InfoContext(ctx, "Budget state pushed to Firestore",
		"group", key,
		"revision", revision,
		"collection", c.collection)

	return nil
}

// ListGroups implements store.GroupLister by listing document names in
// the budgets collection.
func (c *Client) ListGroups(ctx context.Context) ([]string, error) {
	var keys []string
	call := c.svc.Projects.Databases.Documents.List(c.documentsRoot(), c.collection)
	err := call.Pages(ctx, func(resp *firestore.ListDocumentsResponse) error {
		for _, doc := range resp.Documents {
			parts := strings.Split(doc.Name, "/")
			keys = append(keys, parts[len(parts)-1])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return keys, nil
}

func decodeDocument(doc *firestore.Document) (core.BudgetState, int64, error) {
	field, ok := doc.Fields["state"]
	if !ok || field.StringValue == "" {
		return core.BudgetState{}, 0, errors.New("document has no state field")
	}
	var state core.BudgetState
	if err := json.Unmarshal([]byte(field.StringValue), &state); err != nil {
		return core.BudgetState{}, 0, err
	}
	var revision int64
	if rev, ok := doc.Fields["revision"]; ok {
		revision = rev.IntegerValue
	}
	return state, revision, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
