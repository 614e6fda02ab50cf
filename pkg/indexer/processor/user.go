package processor

import (
	"context"
	"time"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
)

// resolveUser loads or creates the user with zeroed counters. New users are counted in the
// protocol stats.
func (p *Processor) resolveUser(ctx context.Context, u *unit, id string, seen time.Time) (*amm.User, error) {
	user, ok, err := db.Load[amm.User](ctx, u.Session, entities.Users, id)
	if err != nil || ok {
		return user, err
	}

	user = amm.NewUser(id, seen)
	db.Save(u.Session, entities.Users, id, user)

	stats, err := p.protocolStats(ctx, u)
	if err != nil {
		return nil, err
	}
	stats.TotalUsers++
	return user, nil
}

// protocolStats loads or creates the singleton and stages it for saving; callers mutate the
// returned instance in place.
func (p *Processor) protocolStats(ctx context.Context, u *unit) (*amm.ProtocolStats, error) {
	stats, ok, err := db.Load[amm.ProtocolStats](ctx, u.Session, entities.ProtocolStats, amm.ProtocolStatsID)
	if err != nil {
		return nil, err
	}
	if !ok {
		stats = &amm.ProtocolStats{ID: amm.ProtocolStatsID}
	}
	db.Save(u.Session, entities.ProtocolStats, amm.ProtocolStatsID, stats)
	return stats, nil
}
