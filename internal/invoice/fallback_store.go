package invoice

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// fallbackStore prefers S3 and falls back to the local directory when S3 is
// disabled, missing, or failing.
type fallbackStore struct {
	remote    Store
	local     Store
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore combines an S3 store with a local one. remote may be nil.
func NewFallbackStore(remote, local Store, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		remote:    remote,
		local:     local,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "invoice-fallback-store").Logger(),
	}
}

func (s *fallbackStore) useRemote() bool {
	return s.s3Enabled && s.remote != nil
}

func (s *fallbackStore) Put(ctx context.Context, name string, pdf []byte) error {
	if s.useRemote() {
		err := s.remote.Put(ctx, name, pdf)
		if err == nil {
			return nil
		}
		s.logger.Warn().Err(err).Str("name", name).Msg("failed to archive invoice to S3, writing locally")
	}
	return s.local.Put(ctx, name, pdf)
}

func (s *fallbackStore) Get(ctx context.Context, name string) ([]byte, error) {
	if s.useRemote() {
		data, err := s.remote.Get(ctx, name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Str("name", name).Msg("failed to read invoice from S3, trying local archive")
		}
	}
	return s.local.Get(ctx, name)
}
