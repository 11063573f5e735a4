package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/weiawesome/yaycha/internal/domain"
	pkglog "github.com/weiawesome/yaycha/pkg/log"
	"github.com/weiawesome/yaycha/pkg/storage"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrDecode          = errors.New("could not decode image")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// AllowedExtension reports whether filename has an accepted image extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Options holds the output dimensions per image kind.
type Options struct {
	AvatarSize  int
	CoverWidth  int
	CoverHeight int
	JPEGQuality int
}

type sizeSpec struct {
	prefix string
	width  int
	height int
}

// Processor normalises uploaded images and writes them to storage.
type Processor struct {
	storage     storage.Storage
	sizes       map[domain.ImageKind]sizeSpec
	jpegQuality int
}

func NewProcessor(store storage.Storage, opts Options) *Processor {
	if opts.AvatarSize <= 0 {
		opts.AvatarSize = 512
	}
	if opts.CoverWidth <= 0 || opts.CoverHeight <= 0 {
		opts.CoverWidth, opts.CoverHeight = 1500, 500
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}

	return &Processor{
		storage: store,
		sizes: map[domain.ImageKind]sizeSpec{
			domain.ImageAvatar: {prefix: "avatars", width: opts.AvatarSize, height: opts.AvatarSize},
			domain.ImageCover:  {prefix: "covers", width: opts.CoverWidth, height: opts.CoverHeight},
		},
		jpegQuality: opts.JPEGQuality,
	}
}

// Process decodes r, crops it centred to the size of kind, and stores it as
// JPEG under "<prefix>/<uuid>.jpg". It returns the storage key, which clients
// resolve under /uploads.
func (p *Processor) Process(ctx context.Context, kind domain.ImageKind, r io.Reader) (string, error) {
	sz, ok := p.sizes[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resized := imaging.Fill(img, sz.width, sz.height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(p.jpegQuality)); err != nil {
		return "", fmt.Errorf("encode %s: %w", kind, err)
	}

	key := fmt.Sprintf("%s/%s.jpg", sz.prefix, uuid.NewString())
	if err := p.storage.Write(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg"); err != nil {
		return "", fmt.Errorf("upload %s: %w", kind, err)
	}

	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldStorageKey, key).Int("bytes", buf.Len()).Msg("stored processed image")

	return key, nil
}

// Remove deletes a previously stored image by its key. Absolute URLs, such
// as seeded placeholder avatars, were never stored here and are ignored.
func (p *Processor) Remove(ctx context.Context, key string) error {
	if key == "" || strings.Contains(key, "://") {
		return nil
	}
	return p.storage.Delete(ctx, key)
}
