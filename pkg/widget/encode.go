package widget

import (
	"context"
	"encoding/base64"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Encode reads every file and base64-encodes it, at most workers at a time
// (unbounded when workers <= 0). The result is in input order regardless of
// completion order. The first failure cancels the remaining reads and fails
// the whole batch with an *EncodingError, or with the context error when ctx
// is done.
func Encode(ctx context.Context, files []OfferedFile, workers int) (Value, error) {
	value := make(Value, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			contents, err := encodeFile(gctx, f)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return &EncodingError{Filename: f.Name, Err: err}
			}
			value[i] = File{Name: f.Name, Contents: contents}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return value, nil
}

func encodeFile(ctx context.Context, f OfferedFile) (string, error) {
	if f.Open == nil {
		return "", errNoContent
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	// Size is declared by the provider and is not used to size buffers.
	var sb strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	if _, err := io.Copy(enc, &ctxReader{ctx: ctx, r: rc}); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
