package repository

import (
	"context"
	"errors"

	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/navigation/domain"
)

// Ensure ArchiveLocator implements the domain port.
var _ domain.DeviceLocator = (*ArchiveLocator)(nil)

// ArchiveLocator resolves one-shot fixes from the position archive. The
// backend has no direct sensor access; the most recent archived sample is
// the best available answer for a poll.
type ArchiveLocator struct {
	positions domain.PositionArchive
}

func NewArchiveLocator(positions domain.PositionArchive) *ArchiveLocator {
	return &ArchiveLocator{positions: positions}
}

var errNoArchivedFix = errors.New("no archived fix")

func (l *ArchiveLocator) Locate(ctx context.Context) (geo.Position, error) {
	position, ok, err := l.positions.Latest(ctx)
	if err != nil {
		return geo.Position{}, err
	}
	if !ok {
		return geo.Position{}, errNoArchivedFix
	}
	return position, nil
}
