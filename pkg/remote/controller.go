package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"

	"go.uber.org/zap"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/logger"
)

// ErrRunActive 远端已有同名 screen 会话在运行
var ErrRunActive = errors.New("acquisition session already running on remote node")

// Controller 远程生命周期控制：init / finish / copy / update
type Controller struct {
	ch  Channel
	cfg config.RemoteConfig
}

// NewController cfg 在启动时解析一次后注入
func NewController(ch Channel, cfg config.RemoteConfig) *Controller {
	return &Controller{ch: ch, cfg: cfg}
}

// RemoteBinary 远端程序路径
func (c *Controller) RemoteBinary() string {
	return path.Join(c.cfg.ProjectPath, c.cfg.Binary)
}

// StartCommand 以分离的 screen 会话启动采集循环
func (c *Controller) StartCommand() string {
	cmd := fmt.Sprintf("screen -Sdm %s %s --runmode main", c.cfg.Session, shellQuote(c.RemoteBinary()))
	if c.cfg.ConfigPath != "" {
		cmd += " --config " + shellQuote(c.cfg.ConfigPath)
	}
	return cmd
}

// StopCommand 结束指定会话
func (c *Controller) StopCommand() string {
	return fmt.Sprintf("screen -XS %s quit", c.cfg.Session)
}

// Active 远端是否已有同名会话。screen -ls 无会话时退出码非零，以输出为准
func (c *Controller) Active(ctx context.Context) (bool, error) {
	out, err := c.ch.Run(ctx, "screen -ls")
	if err != nil && out == "" {
		return false, fmt.Errorf("list screen sessions: %w", err)
	}
	re := regexp.MustCompile(`(?m)^\s*\d+\.` + regexp.QuoteMeta(c.cfg.Session) + `\s`)
	return re.MatchString(out), nil
}

// Init 启动远端采集；已有运行中的会话时拒绝
func (c *Controller) Init(ctx context.Context) error {
	active, err := c.Active(ctx)
	if err != nil {
		return err
	}
	if active {
		return fmt.Errorf("session %q: %w", c.cfg.Session, ErrRunActive)
	}
	if _, err := c.ch.Run(ctx, c.StartCommand()); err != nil {
		return fmt.Errorf("start acquisition: %w", err)
	}
	logger.Info("remote acquisition started", zap.String("host", c.cfg.Host), zap.String("session", c.cfg.Session))
	return nil
}

// Finish 结束会话后拷贝数据；会话可能已不存在，停止失败时仍然拷贝
func (c *Controller) Finish(ctx context.Context) error {
	_, stopErr := c.ch.Run(ctx, c.StopCommand())
	if stopErr != nil {
		logger.Warn("stop remote session failed, copying anyway", zap.String("session", c.cfg.Session), zap.Error(stopErr))
		stopErr = fmt.Errorf("stop acquisition: %w", stopErr)
	} else {
		logger.Info("remote acquisition stopped", zap.String("host", c.cfg.Host), zap.String("session", c.cfg.Session))
	}
	return errors.Join(stopErr, c.Copy(ctx))
}

// Copy 拷贝远端数据目录到本地，不打断正在进行的采集；可重复执行
func (c *Controller) Copy(ctx context.Context) error {
	if err := os.MkdirAll(c.cfg.LocalDataPath, 0755); err != nil {
		return fmt.Errorf("prepare local data dir: %w", err)
	}
	if err := c.ch.Fetch(ctx, c.cfg.DataPath, c.cfg.LocalDataPath); err != nil {
		return fmt.Errorf("copy remote data: %w", err)
	}
	return nil
}

// Update 推送本地程序到远端项目目录，默认推送当前可执行文件
func (c *Controller) Update(ctx context.Context) error {
	local := c.cfg.LocalBinary
	if local == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate local binary: %w", err)
		}
		local = exe
	}
	if err := c.ch.Push(ctx, local, c.RemoteBinary()); err != nil {
		return fmt.Errorf("update remote binary: %w", err)
	}
	logger.Info("remote binary updated", zap.String("local", local), zap.String("remote", c.RemoteBinary()))
	return nil
}
