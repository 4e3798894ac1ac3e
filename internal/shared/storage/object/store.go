package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"contract-backend/internal/shared/util"
)

// MetaContractID is the object metadata key remote stores tag uploads with.
const MetaContractID = "contract-id"

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// ObjectStore saves and retrieves uploaded contract files.
type ObjectStore interface {
	Save(ctx context.Context, contractID string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes a stored object. A missing object is not an error.
	Delete(ctx context.Context, storageKey string) error
}

// Key builds the storage key of a contract's file: contracts/<id>/<sanitized name>.
func Key(contractID, fileName string) (string, error) {
	if contractID == "" {
		return "", fmt.Errorf("contract id is required")
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join("contracts", contractID, name), nil
}

// Sniff detects the content type from the first 512 bytes and returns a reader
// that replays them ahead of the rest of r.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}
