package publisher

import (
	"context"

	"github.com/kkkk2058/portfolio/module/core/domain"
)

type ZoneEventPublisher interface {
	PublishEvent(ctx context.Context, event *domain.ZoneEvent) error
}
