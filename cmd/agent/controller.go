package agent

import (
	"context"
	"fmt"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/remote"
)

// newController 校验远程配置并建立通道；通道由调用方关闭
func newController(ctx context.Context, cfg *config.Config) (*remote.Controller, func() error, error) {
	if err := cfg.Remote.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validate remote config: %w", err)
	}
	ch, err := remote.Dial(ctx, cfg.Remote)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", cfg.Remote.Host, err)
	}
	return remote.NewController(ch, cfg.Remote), ch.Close, nil
}
