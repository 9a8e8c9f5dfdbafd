// Package service holds the identity and graph operations. Handlers call
// these; they never touch repositories directly.
package service

import (
	"errors"

	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
	"github.com/iliyamo/snapgram/internal/telemetry"
)

var tracer = telemetry.Tracer("github.com/iliyamo/snapgram/internal/service")

// notFound maps repository.ErrNotFound to domain; other errors pass through.
func notFound(err, domain error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain
	}
	return err
}

// isDomain reports whether err is a client-facing rejection rather than an
// infrastructure failure.
func isDomain(err error) bool {
	var de *model.Error
	return errors.As(err, &de)
}
