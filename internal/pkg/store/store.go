package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Firestore allows at most 10 values in an "in" filter.
const maxInValues = 10

type Operator string

const (
	OpEqual Operator = "=="
	OpIn    Operator = "in"
)

var ErrInvalidArgument = errors.New("invalid argument")

type Config struct {
	Collection string
	Field      string
	Operator   Operator
	Values     []string
	OrderBy    string
}

// Validate checks the operator/value-count combination before any query is built.
func (conf Config) Validate() error {
	switch conf.Operator {
	case OpEqual:
		if len(conf.Values) != 1 {
			return fmt.Errorf("%w: operator %q requires exactly one filter value, got %d", ErrInvalidArgument, conf.Operator, len(conf.Values))
		}
	case OpIn:
		if len(conf.Values) == 0 {
			return fmt.Errorf("%w: operator %q requires at least one filter value", ErrInvalidArgument, conf.Operator)
		}
		if len(conf.Values) > maxInValues {
			return fmt.Errorf("%w: operator %q supports up to %d values, got %d", ErrInvalidArgument, conf.Operator, maxInValues, len(conf.Values))
		}
	default:
		return fmt.Errorf("%w: unknown filter operator %q", ErrInvalidArgument, conf.Operator)
	}

	return nil
}

// Document is a read-only snapshot of one record in the collection.
type Document struct {
	ID   string
	Data map[string]interface{}
}

type Client struct {
	Log       *logrus.Entry
	Config    Config
	Firestore *firestore.Client
}

// NewClient dials Firestore for the run. An empty credentialsFile falls back to
// application default credentials; an empty projectID is detected from them.
func NewClient(ctx context.Context, log *logrus.Entry, projectID, credentialsFile string, conf Config) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating firestore client %w", err)
	}

	return &Client{
		Log:       log,
		Config:    conf,
		Firestore: fs,
	}, nil
}

func (client *Client) Close() error {
	return client.Firestore.Close()
}

// Fetch runs the configured query once and drains the document stream.
// Ordering, when requested, is left to Firestore; no client-side re-sort.
func (client *Client) Fetch(ctx context.Context) ([]Document, error) {
	err := client.Config.Validate()
	if err != nil {
		return nil, err
	}

	iter := client.buildQuery().Documents(ctx)
	defer iter.Stop()

	documents := make([]Document, 0)

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error streaming documents from collection %s: %w", client.Config.Collection, err)
		}

		documents = append(documents, Document{
			ID:   snap.Ref.ID,
			Data: snap.Data(),
		})
	}

	client.Log.WithFields(logrus.Fields{
		"collection": client.Config.Collection,
		"count":      len(documents),
	}).Info("fetched documents")

	return documents, nil
}

func (client *Client) buildQuery() firestore.Query {
	collection := client.Firestore.Collection(client.Config.Collection)

	var query firestore.Query

	switch client.Config.Operator {
	case OpEqual:
		query = collection.Where(client.Config.Field, string(OpEqual), client.Config.Values[0])
	default:
		query = collection.Where(client.Config.Field, string(OpIn), client.Config.Values)
	}

	if client.Config.OrderBy != "" {
		query = query.OrderBy(client.Config.OrderBy, firestore.Asc)
	}

	return query
}
