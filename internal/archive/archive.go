// Package archive moves cleaned datasets in and out of object storage as
// snappy-compressed CSV exports.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/golang/snappy"
	"go.uber.org/zap"

	"github.com/datagroom/datagroom/internal/csvio"
	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/internal/storage"
	"github.com/datagroom/datagroom/pkg/types"
)

// Archiver exports tables to object storage and restores them. Archives are
// laid out as exports/<dataset>/<timestamp>.csv.sz, so the newest archive
// for a dataset is the lexicographically largest key under its prefix.
type Archiver struct {
	storage storage.ObjectStorage
	logger  *zap.Logger
}

// New creates an archiver over the given backend.
func New(st storage.ObjectStorage, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{storage: st, logger: logger}
}

// Archive renders a table to CSV, snappy-compresses it, and uploads it.
// It returns the object path of the new archive.
func (a *Archiver) Archive(ctx context.Context, dataset string, t types.Table) (string, error) {
	var buf bytes.Buffer
	if err := csvio.Write(&buf, t, false); err != nil {
		return "", derrors.NewArchiveError(derrors.CodeUploadFailed, "failed to render CSV", err)
	}

	compressed := snappy.Encode(nil, buf.Bytes())
	objectPath := objectPathFor(dataset, time.Now().UTC())

	if err := a.storage.Upload(ctx, objectPath, compressed); err != nil {
		return "", derrors.NewArchiveError(derrors.CodeUploadFailed,
			fmt.Sprintf("failed to upload %s", objectPath), err)
	}

	a.logger.Info("dataset archived",
		zap.String("dataset", dataset),
		zap.String("object", objectPath),
		zap.Int("csv_bytes", buf.Len()),
		zap.Int("stored_bytes", len(compressed)),
	)
	return objectPath, nil
}

// Restore downloads the newest archive for a dataset, decompresses it, and
// parses it the way a fresh CSV load would. It returns the table and the
// object path it came from.
func (a *Archiver) Restore(ctx context.Context, dataset string) (types.Table, string, error) {
	objectPath, err := a.Latest(ctx, dataset)
	if err != nil {
		return types.Table{}, "", err
	}

	compressed, err := a.storage.Download(ctx, objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return types.Table{}, "", derrors.NewArchiveError(derrors.CodeObjectNotFound,
				fmt.Sprintf("archive %s not found", objectPath), err)
		}
		return types.Table{}, "", derrors.NewArchiveError(derrors.CodeDownloadFailed,
			fmt.Sprintf("failed to download %s", objectPath), err)
	}

	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return types.Table{}, "", derrors.NewArchiveError(derrors.CodeDownloadFailed,
			fmt.Sprintf("snappy decompress failed for %s", objectPath), err)
	}

	tbl, _, err := csvio.LoadBytes(raw, objectPath)
	if err != nil {
		return types.Table{}, "", err
	}
	return tbl, objectPath, nil
}

// Latest returns the object path of the newest archive for a dataset.
func (a *Archiver) Latest(ctx context.Context, dataset string) (string, error) {
	objects, err := a.List(ctx, dataset)
	if err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", derrors.NewArchiveError(derrors.CodeObjectNotFound,
			fmt.Sprintf("no archives for dataset %q", dataset), nil)
	}
	return objects[len(objects)-1], nil
}

// List returns all archive object paths for a dataset, oldest first.
func (a *Archiver) List(ctx context.Context, dataset string) ([]string, error) {
	objects, err := a.storage.ListObjects(ctx, prefixFor(dataset))
	if err != nil {
		return nil, derrors.NewArchiveError(derrors.CodeDownloadFailed,
			fmt.Sprintf("failed to list archives for %q", dataset), err)
	}
	sort.Strings(objects)
	return objects, nil
}

// DeleteAll removes every archive for a dataset and returns how many objects
// were deleted. Per-object failures are logged, not fatal.
func (a *Archiver) DeleteAll(ctx context.Context, dataset string) (int, error) {
	deleter := storage.NewBatchDeleter(a.storage, 4)
	result, err := deleter.DeletePrefix(ctx, prefixFor(dataset))
	if err != nil {
		return 0, derrors.NewArchiveError(derrors.CodeDeleteFailed,
			fmt.Sprintf("failed to delete archives for %q", dataset), err)
	}
	for path, derr := range result.Errors {
		a.logger.Warn("failed to delete archive",
			zap.String("object", path),
			zap.Error(derr),
		)
	}
	return len(result.Deleted), nil
}

var unsafeSegmentRe = regexp.MustCompile(`[^\w-]`)
var segmentRunRe = regexp.MustCompile(`_+`)

// safeSegment turns a dataset name into a path segment usable as an object
// key. Distinct names can sanitize to the same segment; registry names are
// unique before sanitization, so in practice prefixes stay disjoint.
func safeSegment(name string) string {
	s := unsafeSegmentRe.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(segmentRunRe.ReplaceAllString(s, "_"), "_")
	if s == "" {
		return "dataset"
	}
	return s
}

func prefixFor(dataset string) string {
	return "exports/" + safeSegment(dataset)
}

func objectPathFor(dataset string, now time.Time) string {
	return fmt.Sprintf("%s/%s.csv.sz", prefixFor(dataset), now.Format("20060102_150405"))
}
