package objectstore

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strings"

	"roofscore/packages/go/geometry"
	"roofscore/packages/go/utils"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

var ErrObjectNotFound = errors.New("object not found")

// Store reads the raw drone images of missions and writes their exports, in a single bucket.
type Store struct {
	service *storage.Service
	bucket  string
	prefix  string
	logger  *zerolog.Logger
}

type Options struct {
	Bucket          string
	CredentialsFile string
	// Endpoint overrides the storage API base path, for emulators.
	Endpoint string
	// Prefix locates the files of a mission, {rcif} and {mission} are substituted.
	Prefix string
}

func New(ctx context.Context, opts Options, l *zerolog.Logger, clientOpts ...option.ClientOption) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	service, err := storage.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create storage client: %w", err)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "{rcif}/{mission}/structure1"
	}
	return &Store{service: service, bucket: opts.Bucket, prefix: prefix, logger: l}, nil
}

// MissionPrefix is the folder holding the files of a mission version.
func (s *Store) MissionPrefix(rcif, missionID string) string {
	return strings.NewReplacer("{rcif}", rcif, "{mission}", missionID).Replace(s.prefix)
}

// HdImageKey is the object name of the raw image of a mission.
func (s *Store) HdImageKey(rcif, missionID, imageName string) string {
	return path.Join(s.MissionPrefix(rcif, missionID), "hdimages", utils.ImageStem(imageName)+".jpg")
}

// ImageShape reads the size of a raw drone image from its header.
func (s *Store) ImageShape(ctx context.Context, rcif, missionID, imageName string) (geometry.Shape, error) {
	key := s.HdImageKey(rcif, missionID, imageName)
	resp, err := s.service.Objects.Get(s.bucket, key).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return geometry.Shape{}, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return geometry.Shape{}, fmt.Errorf("unable to download %s: %w", key, err)
	}
	defer resp.Body.Close()

	cfg, format, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return geometry.Shape{}, fmt.Errorf("unable to decode %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Str("format", format).Int("width", cfg.Width).Int("height", cfg.Height).Msg("raw image size read")
	return geometry.Shape{Height: cfg.Height, Width: cfg.Width}, nil
}

// Upload writes an object, replacing any previous version.
func (s *Store) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	object := &storage.Object{Name: key, ContentType: contentType}
	_, err := s.service.Objects.Insert(s.bucket, object).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to upload %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Msg("object uploaded")
	return nil
}
