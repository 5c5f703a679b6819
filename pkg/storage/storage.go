package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
)

const (
	// DefaultMaxRetries is the number of retries for a write operation
	DefaultMaxRetries = 4
)

// ErrNotFound is returned when the requested object is not found.
var ErrNotFound = errors.New("Object not found")

// Storage is the interface document stores must implement.
type Storage interface {
	ReadWriter
	Remover
	Lister
}

// ReadWriter can read and write objects by key.
type ReadWriter interface {
	Write(ctx context.Context, key string, body []byte, options *Options) error
	Read(ctx context.Context, key string) ([]byte, error)
}

// Remover can remove an object by key.
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Lister returns the keys of the objects under a path prefix.
type Lister interface {
	List(ctx context.Context, path string) ([]string, error)
}

// Options control an individual write.
type Options struct {
	// TTL is the lifespan of the object, in seconds. Zero means no expiry.
	// Respected only by backends that support expiry.
	TTL int64

	// Mode is the file mode applied to written objects, for backends where
	// that applies.
	Mode os.FileMode

	// DirMode is the file mode applied to any directories created to hold
	// written objects.
	DirMode os.FileMode
}

// NewOptions returns Options with sane defaults applied.
func NewOptions() Options {
	return Options{
		Mode:    0644,
		DirMode: 0755,
	}
}

// Config holds all configuration for the Storage.
//
// Config is geared towards "bucket" style storage, where you have a
// specific root (the Bucket).
type Config struct {
	Region     string
	AccessKey  string
	Secret     string
	Bucket     string
	Root       string
	MaxRetries int
}

// NewConfig returns a new Config with AWS style options.
func NewConfig(bucket, root string) Config {
	return Config{
		Bucket:     bucket,
		Root:       root,
		MaxRetries: DefaultMaxRetries,
	}
}

func (c Config) String() string {
	root := ""
	if len(c.Root) > 0 {
		root = fmt.Sprintf("Root:%s", c.Root)
	}

	return fmt.Sprintf("{Bucket:%v %s MaxRetries:%v}",
		c.Bucket,
		root,
		c.MaxRetries)
}
