package media

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
	ErrNotConfigured    = errors.New("upload backend is not configured")
)

const (
	DefaultURLTTL       = 7 * 24 * time.Hour
	DefaultMaxImageSize = 5 << 20
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Pinner stores a JSON document on IPFS and returns its ipfs:// URI.
type Pinner interface {
	PinJSON(ctx context.Context, name string, content any) (string, error)
}

type Config struct {
	PublicBaseURL string
	URLTTL        time.Duration
	MaxImageSize  int64
}

type Service struct {
	storage ObjectStorage
	pinner  Pinner
	cfg     Config
	now     func() time.Time
}

type Image struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

func NewService(storage ObjectStorage, pinner Pinner, cfg Config) *Service {
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if cfg.URLTTL <= 0 || cfg.URLTTL > DefaultURLTTL {
		cfg.URLTTL = DefaultURLTTL
	}
	if cfg.MaxImageSize <= 0 {
		cfg.MaxImageSize = DefaultMaxImageSize
	}

	return &Service{
		storage: storage,
		pinner:  pinner,
		cfg:     cfg,
		now:     time.Now,
	}
}

// UploadImage stores a coin image. The content type is sniffed from the body
// and must be one of the supported image formats.
func (s *Service) UploadImage(ctx context.Context, fid int64, body io.Reader, size int64) (Image, error) {
	if fid <= 0 || body == nil || size <= 0 {
		return Image{}, ErrValidation
	}
	if size > s.cfg.MaxImageSize {
		return Image{}, ErrImageTooLarge
	}
	if s.storage == nil {
		return Image{}, ErrNotConfigured
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Image{}, fmt.Errorf("read image header: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return Image{}, ErrUnsupportedImage
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Image{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key, err := s.buildImageKey(fid, ext)
	if err != nil {
		return Image{}, fmt.Errorf("build object key: %w", err)
	}

	full := io.MultiReader(bytes.NewReader(head), body)
	if err := s.storage.PutObject(ctx, key, full, size, contentType); err != nil {
		return Image{}, fmt.Errorf("put object: %w", err)
	}

	url, err := s.objectURL(ctx, key)
	if err != nil {
		return Image{}, err
	}

	return Image{Key: key, URL: url, ContentType: contentType, Size: size}, nil
}

// PinMetadata pins a token metadata document. The document must be a JSON
// object with a name; it is pinned as "<name> metadata".
func (s *Service) PinMetadata(ctx context.Context, data json.RawMessage) (string, error) {
	if s.pinner == nil {
		return "", ErrNotConfigured
	}
	if !gjson.ValidBytes(data) {
		return "", ErrValidation
	}
	doc := gjson.ParseBytes(data)
	name := strings.TrimSpace(doc.Get("name").String())
	if !doc.IsObject() || name == "" {
		return "", ErrValidation
	}

	uri, err := s.pinner.PinJSON(ctx, name+" metadata", data)
	if err != nil {
		return "", fmt.Errorf("pin metadata: %w", err)
	}
	return uri, nil
}

func (s *Service) objectURL(ctx context.Context, key string) (string, error) {
	if s.cfg.PublicBaseURL != "" {
		return s.cfg.PublicBaseURL + "/" + key, nil
	}
	url, err := s.storage.PresignGet(ctx, key, s.cfg.URLTTL)
	if err != nil {
		return "", fmt.Errorf("presign image url: %w", err)
	}
	return url, nil
}

func (s *Service) buildImageKey(fid int64, ext string) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	stamp := s.now().UTC().Format("20060102T150405")
	return path.Join("coins", "images", strconv.FormatInt(fid, 10), stamp+"_"+hex.EncodeToString(rnd)+ext), nil
}
