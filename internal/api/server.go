package api

import (
	"context"
	"time"

	"github.com/vytor/memocurve/internal/clock"
	"github.com/vytor/memocurve/internal/services"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	CardService    services.CardService
	StudyService   services.StudyService
	ImportService  services.ImportService
	DB             Pinger
	Clock          clock.Clock
	RequestTimeout time.Duration
}
