package covdata

import (
	"bytes"
	"compress/zlib"
	"context"
	"io"

	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
	"github.com/gocoverage/covdata/pkg/covdata/sqlitestore"
)

// serializationPrefix marks the wire format: a zlib-compressed dump of
// the underlying SQL store. It's a single byte so a reader can
// recognize and reject other formats without attempting to decompress
// them.
const serializationPrefix = 'z'

// Dumps serializes the entire store to a portable byte string, used to
// ship coverage data between processes that don't share a filesystem.
// The format mirrors sqldata.py's dumps(): a single marker byte
// followed by a zlib-compressed SQL dump, so a consuming process with
// a different sqlite build can still Loads() it as plain SQL.
func (c *CoverageData) Dumps(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	script, err := store.Dump(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte(serializationPrefix)
	w := zlib.NewWriter(&buf)
	if _, err := io.WriteString(w, script); err != nil {
		return nil, covdataerrors.NewDataFileError(c.filename, err)
	}
	if err := w.Close(); err != nil {
		return nil, covdataerrors.NewDataFileError(c.filename, err)
	}
	return buf.Bytes(), nil
}

// Loads replaces this store's contents with the data previously
// produced by Dumps, discarding anything currently recorded.
func (c *CoverageData) Loads(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(data) == 0 || data[0] != serializationPrefix {
		return covdataerrors.NewUnrecognizedSerializationError(data)
	}

	r, err := zlib.NewReader(bytes.NewReader(data[1:]))
	if err != nil {
		return covdataerrors.NewDataFileError(c.filename, err)
	}
	defer r.Close()

	script, err := io.ReadAll(r)
	if err != nil {
		return covdataerrors.NewDataFileError(c.filename, err)
	}

	if err := c.Erase(ctx, false); err != nil {
		return err
	}

	// Unlike a normal connect(), a loaded dump carries its own schema
	// DDL as the first statements of the script, so the store is opened
	// raw here rather than through connect() (which would create an
	// empty schema first and collide with it).
	store, err := sqlitestore.Open(c.filename, c.noDisk)
	if err != nil {
		return err
	}
	c.store = store
	if err := store.Load(ctx, string(script)); err != nil {
		return err
	}
	if err := c.readDB(ctx); err != nil {
		return err
	}
	c.haveUsed = true
	return nil
}
