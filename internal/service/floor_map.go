package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"strings"

	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/repository"
)

// FloorMapService stores the single venue map image.
type FloorMapService struct {
	base
	maxBytes int
}

func NewFloorMapService(d Deps, maxBytes int) *FloorMapService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &FloorMapService{base: newBase(d), maxBytes: maxBytes}
}

// Get returns the current floor map.
func (s *FloorMapService) Get(ctx context.Context) (*model.FloorMapImage, error) {
	var img *model.FloorMapImage
	err := s.read(ctx, "get floor map", func(ctx context.Context, db repository.DBTX) error {
		var err error
		img, err = repository.NewFloorMapRepo(db).Current(ctx)
		return notFound(err, "floor map", nil)
	})
	return img, err
}

// Replace swaps the stored map for a new one.  data is base64 (optionally a
// data: URL) or a plain http(s) URL; its size is the decoded length or the
// URL length.
func (s *FloorMapService) Replace(ctx context.Context, filename, mimeType, data string) (*model.FloorMapImage, error) {
	filename = strings.TrimSpace(filename)
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	data = strings.TrimSpace(data)
	switch {
	case filename == "":
		return nil, invalid("filename is required")
	case !strings.HasPrefix(mimeType, "image/"):
		return nil, invalid("mimeType must be an image type")
	case data == "":
		return nil, invalid("data is required")
	}

	size, err := payloadSize(data)
	if err != nil {
		return nil, err
	}
	if size > s.maxBytes {
		return nil, invalid("floor map exceeds %d bytes", s.maxBytes)
	}

	img := &model.FloorMapImage{Filename: filename, MimeType: mimeType, Data: data, Size: size}
	err = s.inTx(ctx, "replace floor map", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		return repository.NewFloorMapRepo(tx).Replace(ctx, img)
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func payloadSize(data string) (int, error) {
	if strings.HasPrefix(data, "http://") || strings.HasPrefix(data, "https://") {
		return len(data), nil
	}
	if strings.HasPrefix(data, "data:") {
		i := strings.Index(data, ";base64,")
		if i < 0 {
			return 0, invalid("data URL must be base64 encoded")
		}
		data = data[i+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return 0, invalid("data must be base64 or a URL")
	}
	return len(decoded), nil
}
