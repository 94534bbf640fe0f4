package remote

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/util"
)

const transportOpenSSH = "openssh"

// OpenSSHChannel 调用本机 ssh/scp，认证交给 ~/.ssh/config 与 ssh-agent
type OpenSSHChannel struct {
	cfg    config.RemoteConfig
	runner util.Runner
}

// NewOpenSSHChannel runner 通常为 util.ExecRunner
func NewOpenSSHChannel(cfg config.RemoteConfig, runner util.Runner) *OpenSSHChannel {
	return &OpenSSHChannel{cfg: cfg, runner: runner}
}

func (c *OpenSSHChannel) target() string {
	return c.cfg.User + "@" + c.cfg.Host
}

func (c *OpenSSHChannel) common(portFlag string) []string {
	args := []string{"-o", "BatchMode=yes"}
	if c.cfg.DialTimeout > 0 {
		args = append(args, "-o", "ConnectTimeout="+strconv.Itoa(int(c.cfg.DialTimeout.Seconds())))
	}
	if c.cfg.Port != 0 && c.cfg.Port != 22 {
		args = append(args, portFlag, strconv.Itoa(c.cfg.Port))
	}
	if c.cfg.PrivateKeyPath != "" {
		args = append(args, "-i", c.cfg.PrivateKeyPath)
	}
	if c.cfg.KnownHosts != "" {
		args = append(args, "-o", "UserKnownHostsFile="+c.cfg.KnownHosts)
	}
	return args
}

func (c *OpenSSHChannel) exec(ctx context.Context, name string, args []string) (string, error) {
	logCommand(transportOpenSSH, util.CommandLine(name, args...))
	return c.runner.Run(ctx, name, args...)
}

// Run ssh user@host <command>
func (c *OpenSSHChannel) Run(ctx context.Context, command string) (string, error) {
	args := append(c.common("-p"), c.target(), command)
	return c.exec(ctx, "ssh", args)
}

// Fetch scp -r user@host:<dir>/* <local>
func (c *OpenSSHChannel) Fetch(ctx context.Context, remoteDir, localDir string) error {
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return err
	}
	src := fmt.Sprintf("%s:%s/*", c.target(), shellQuote(path.Clean(remoteDir)))
	args := append(c.common("-P"), "-r", src, localDir)
	_, err := c.exec(ctx, "scp", args)
	return err
}

// Push scp <local> user@host:<path>
func (c *OpenSSHChannel) Push(ctx context.Context, localFile, remotePath string) error {
	args := append(c.common("-P"), localFile, c.target()+":"+shellQuote(remotePath))
	_, err := c.exec(ctx, "scp", args)
	return err
}

// Close 无连接需要释放
func (c *OpenSSHChannel) Close() error { return nil }
