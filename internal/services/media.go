package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"yatube/internal/config"
)

const (
	imageFolder    = "posts"
	imageMaxWidth  = 960
	imageMaxHeight = 960
	// 解码前按像素数限制, 防止高压缩比的小文件解出巨大位图
	imageMaxPixels = 40_000_000
	imageCacheCtl  = "public, max-age=31536000, immutable"
)

var (
	ErrImageTooLarge    = errors.New("image too large")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrImageDimensions  = errors.New("image dimensions too large")
)

// Upload is an image file received from a form.
type Upload struct {
	Filename string
	Data     []byte
}

// ReadUpload reads at most maxBytes from r.
func ReadUpload(r io.Reader, filename string, maxBytes int64) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrImageTooLarge
	}
	return &Upload{Filename: filename, Data: data}, nil
}

// MediaStore 图片存储, 本地目录或 S3 兼容存储
type MediaStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ProcessImage checks that data is a gif, png or jpeg image, shrinks it to fit
// 960x960 and re-encodes it. It returns the encoded bytes, file extension and
// content type.
func ProcessImage(data []byte) ([]byte, string, string, error) {
	format, err := CheckImage(data)
	if err != nil {
		return nil, "", "", err
	}

	var (
		out         imaging.Format
		ext         string
		contentType string
	)
	switch format {
	case "jpeg":
		out, ext, contentType = imaging.JPEG, ".jpg", "image/jpeg"
	case "png":
		out, ext, contentType = imaging.PNG, ".png", "image/png"
	case "gif":
		out, ext, contentType = imaging.GIF, ".gif", "image/gif"
	default:
		return nil, "", "", ErrInvalidImageType
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", "", ErrInvalidImageType
	}

	bounds := img.Bounds()
	if bounds.Dx() > imageMaxWidth || bounds.Dy() > imageMaxHeight {
		img = imaging.Fit(img, imageMaxWidth, imageMaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, out, imaging.JPEGQuality(85)); err != nil {
		return nil, "", "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), ext, contentType, nil
}

// CheckImage reads only the image header and returns its format. Images over
// imageMaxPixels are rejected with ErrImageDimensions.
func CheckImage(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrInvalidImageType
	}
	if int64(cfg.Width)*int64(cfg.Height) > imageMaxPixels {
		return format, fmt.Errorf("%w: %dx%d", ErrImageDimensions, cfg.Width, cfg.Height)
	}
	return format, nil
}

// NewImageKey returns a fresh storage key for a post image.
func NewImageKey(ext string) string {
	return path.Join(imageFolder, uuid.NewString()+ext)
}

// LocalMediaStore keeps files under Root and serves them from BaseURL.
type LocalMediaStore struct {
	Root    string
	BaseURL string
}

func NewLocalMediaStore(root, baseURL string) *LocalMediaStore {
	return &LocalMediaStore{Root: root, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalMediaStore) Save(_ context.Context, key string, data []byte, _ string) error {
	full := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}

func (s *LocalMediaStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

func (s *LocalMediaStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.BaseURL + "/" + key
}

// S3MediaStore stores images in an S3-compatible bucket.
type S3MediaStore struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string
}

// NewS3MediaStore builds a client from static credentials when given, otherwise
// from the default AWS credential chain.
func NewS3MediaStore(ctx context.Context, cfg *config.Config) (*S3MediaStore, error) {
	if cfg.S3Bucket == "" || cfg.S3PublicURL == "" {
		return nil, fmt.Errorf("missing S3 media configuration")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3MediaStore{
		s3Client:  client,
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimSuffix(cfg.S3PublicURL, "/"),
	}, nil
}

func (s *S3MediaStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(imageCacheCtl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}

func (s *S3MediaStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from s3: %w", err)
	}
	return nil
}

func (s *S3MediaStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicURL + "/" + key
}

// NewMediaStore picks S3 when a bucket is configured, the local directory otherwise.
func NewMediaStore(ctx context.Context, cfg *config.Config) (MediaStore, error) {
	if cfg.S3Bucket != "" {
		store, err := NewS3MediaStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Printf("Media stored in S3 bucket %s", cfg.S3Bucket)
		return store, nil
	}
	log.Printf("Media stored under %s", cfg.MediaRoot)
	return NewLocalMediaStore(cfg.MediaRoot, cfg.MediaURL), nil
}
