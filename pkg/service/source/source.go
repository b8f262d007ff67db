package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
	"github.com/secmon-lab/asclepius/pkg/utils/safe"
)

const gcsScheme = "gs://"

// maxSourceSize bounds a single knowledge or intent file
const maxSourceSize = 32 << 20

// ErrNotFound is returned when the source object or file does not exist
var ErrNotFound = goerr.New("source not found")

// Reader fetches the raw bytes of a data source
type Reader interface {
	Read(ctx context.Context, uri string) ([]byte, error)
}

type client struct {
	mu  sync.Mutex
	gcs *storage.Client
}

// Option is a functional option for the source reader
type Option func(*client)

// WithGCSClient injects a pre-built Cloud Storage client. Without it one is created on first gs:// read.
func WithGCSClient(c *storage.Client) Option {
	return func(r *client) {
		r.gcs = c
	}
}

// New creates a Reader supporting local paths and gs://bucket/object URIs
func New(opts ...Option) Reader {
	c := &client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsLocal reports whether uri refers to the local filesystem
func IsLocal(uri string) bool {
	return !strings.HasPrefix(uri, gcsScheme)
}

func (c *client) Read(ctx context.Context, uri string) ([]byte, error) {
	if uri == "" {
		return nil, goerr.New("source URI is empty")
	}
	if IsLocal(uri) {
		return readLocal(uri)
	}
	return c.readGCS(ctx, uri)
}

func readLocal(path string) ([]byte, error) {
	// #nosec G304 - path is provided by the operator via CLI flag
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrNotFound, "file does not exist", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	defer f.Close() //nolint:errcheck // read-only

	data, err := safe.ReadAll(f, maxSourceSize)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	return data, nil
}

func (c *client) readGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := parseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	gcs, err := c.storageClient(ctx)
	if err != nil {
		return nil, err
	}

	r, err := gcs.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, goerr.Wrap(ErrNotFound, "object does not exist", goerr.V("uri", uri))
		}
		return nil, goerr.Wrap(err, "failed to open object", goerr.V("uri", uri))
	}
	defer safe.Close(ctx, r)

	data, err := safe.ReadAll(r, maxSourceSize)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("uri", uri))
	}

	logging.From(ctx).Debug("read source from Cloud Storage", "uri", uri, "bytes", len(data))
	return data, nil
}

func (c *client) storageClient(ctx context.Context) (*storage.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gcs != nil {
		return c.gcs, nil
	}
	gcs, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
	}
	c.gcs = gcs
	return gcs, nil
}

func parseGCSURI(uri string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(uri, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", goerr.New("invalid Cloud Storage URI, expected gs://bucket/object", goerr.V("uri", uri))
	}
	return bucket, object, nil
}
