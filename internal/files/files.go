// Package files lists and uploads the shared assets of a group: objects in
// the group bucket joined with their metadata rows. Listing always re-fetches;
// there is no local cache to invalidate.
package files

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
	"github.com/rxl895/BrainWave/internal/store"
)

const metaTable = "group_files"

type Service struct {
	client *store.Client
	bucket *store.Bucket
}

func NewService(c *store.Client, bucket string) *Service {
	return &Service{client: c, bucket: c.Storage(bucket)}
}

// List returns the group's file assets: one entry per stored object, enriched
// with its metadata row when present and a public URL.
func (s *Service) List(ctx context.Context, groupID domain.GroupID) ([]domain.FileAsset, error) {
	objects, err := s.bucket.List(ctx, string(groupID))
	if err != nil {
		return nil, err
	}
	out := make([]domain.FileAsset, 0, len(objects))
	for _, obj := range objects {
		path := fmt.Sprintf("%s/%s", groupID, obj.Name)
		asset := domain.FileAsset{
			Path:     path,
			Name:     obj.Name,
			Size:     obj.Size,
			MimeType: obj.MimeType,
		}
		var meta domain.FileAsset
		err := s.client.From(metaTable).Eq("file_path", path).Single().Select(ctx, &meta)
		if err == nil {
			if meta.Name != "" {
				asset.Name = meta.Name
			}
			if meta.MimeType != "" {
				asset.MimeType = meta.MimeType
			}
			if meta.Size > 0 {
				asset.Size = meta.Size
			}
			asset.UploadRef = meta.UploadRef
			asset.CreatedAt = meta.CreatedAt
		} else {
			// A missing row is fine, the object still lists.
			log.Debug().Err(err).Str("module", "files").Str("path", path).Msg("no metadata row")
		}
		asset.PublicURL = s.bucket.PublicURL(path)
		out = append(out, asset)
	}
	return out, nil
}

// Upload stores the object under "<group_id>/<name>" and upserts its metadata
// row. Re-uploading the same name overwrites both.
func (s *Service) Upload(ctx context.Context, groupID domain.GroupID, name, mimeType string, size int64, uploader domain.UserID, r io.Reader) (domain.FileAsset, error) {
	path := fmt.Sprintf("%s/%s", groupID, name)
	if err := s.bucket.Upload(ctx, path, mimeType, r); err != nil {
		return domain.FileAsset{}, err
	}
	row := map[string]any{
		"file_path":   path,
		"file_name":   name,
		"file_type":   mimeType,
		"file_size":   size,
		"uploaded_by": uploader,
		"group_id":    groupID,
	}
	if err := s.client.From(metaTable).Upsert(ctx, row, nil); err != nil {
		return domain.FileAsset{}, err
	}
	log.Info().Str("module", "files").Str("path", path).Int64("size", size).Msg("uploaded")
	return domain.FileAsset{
		Path:      path,
		Name:      name,
		Size:      size,
		MimeType:  mimeType,
		UploadRef: uploader,
		PublicURL: s.bucket.PublicURL(path),
	}, nil
}

// Download fetches the raw bytes of one asset.
func (s *Service) Download(ctx context.Context, path string) ([]byte, error) {
	return s.bucket.Download(ctx, path)
}

// Remove deletes the object and its metadata row.
func (s *Service) Remove(ctx context.Context, path string) error {
	if err := s.bucket.Remove(ctx, path); err != nil {
		return err
	}
	return s.client.From(metaTable).Eq("file_path", path).Delete(ctx)
}
