package model

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/securepay/internal/domain"
)

// Fetcher returns the raw bytes of an artifact URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Bundle is the scaler/classifier pair fit together at training time.
type Bundle struct {
	Scaler     Scaler
	Classifier Classifier
	ScalerURI  string
	ModelURI   string
}

// Loader reads artifacts through a Fetcher.
type Loader struct {
	fetcher Fetcher
	log     zerolog.Logger
}

// NewLoader creates a new artifact loader.
func NewLoader(fetcher Fetcher, log zerolog.Logger) *Loader {
	return &Loader{fetcher: fetcher, log: log}
}

// LoadScaler fetches and decodes a scaler artifact.
func (l *Loader) LoadScaler(ctx context.Context, uri string) (Scaler, error) {
	start := time.Now()
	data, err := l.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, &domain.ArtifactError{Kind: "scaler", URI: uri, Err: err}
	}
	s, err := DecodeScaler(data)
	if err != nil {
		return nil, &domain.ArtifactError{Kind: "scaler", URI: uri, Err: err}
	}

	l.log.Info().
		Str("uri", uri).
		Str("kind", s.Kind()).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Scaler loaded")
	return s, nil
}

// LoadClassifier fetches and decodes a classifier artifact.
func (l *Loader) LoadClassifier(ctx context.Context, uri string) (Classifier, error) {
	start := time.Now()
	data, err := l.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, &domain.ArtifactError{Kind: "classifier", URI: uri, Err: err}
	}
	c, err := DecodeClassifier(data)
	if err != nil {
		return nil, &domain.ArtifactError{Kind: "classifier", URI: uri, Err: err}
	}

	l.log.Info().
		Str("uri", uri).
		Str("kind", c.Kind()).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Classifier loaded")
	return c, nil
}

// LoadBundle loads both artifacts concurrently. Any failure is returned as a
// *domain.ArtifactError and must be treated as fatal by the caller.
func (l *Loader) LoadBundle(ctx context.Context, scalerURI, modelURI string) (*Bundle, error) {
	b := &Bundle{ScalerURI: scalerURI, ModelURI: modelURI}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := l.LoadScaler(gctx, scalerURI)
		if err != nil {
			return err
		}
		b.Scaler = s
		return nil
	})
	g.Go(func() error {
		c, err := l.LoadClassifier(gctx, modelURI)
		if err != nil {
			return err
		}
		b.Classifier = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}
