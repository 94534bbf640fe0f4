package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/logger"
)

const transportNative = "native"

// SSHChannel golang.org/x/crypto/ssh 实现，一个连接上按需开 session
type SSHChannel struct {
	cfg    config.RemoteConfig
	client *ssh.Client
}

// DialSSH 建立 SSH 连接（建连受 dial_timeout 约束，之后的命令不设超时）
func DialSSH(ctx context.Context, cfg config.RemoteConfig) (*SSHChannel, error) {
	clientCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare ssh config: %w", err)
	}

	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", address, err)
	}

	logger.Debug("ssh connected", zap.String("addr", address), zap.String("user", cfg.User))
	return &SSHChannel{cfg: cfg, client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

// clientConfig 私钥优先，其次密码
func clientConfig(cfg config.RemoteConfig) (*ssh.ClientConfig, error) {
	hostKey, err := hostKeyCallback(cfg.KnownHosts)
	if err != nil {
		return nil, err
	}
	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		HostKeyCallback: hostKey,
		Timeout:         cfg.DialTimeout,
	}

	if cfg.PrivateKeyPath != "" {
		signer, err := loadPrivateKey(cfg.PrivateKeyPath, cfg.KeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("load private key %s: %w", cfg.PrivateKeyPath, err)
		}
		clientCfg.Auth = append(clientCfg.Auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		clientCfg.Auth = append(clientCfg.Auth, ssh.Password(cfg.Password))
	}
	if len(clientCfg.Auth) == 0 {
		return nil, errors.New("no authentication method provided (need password or private key)")
	}
	return clientCfg, nil
}

func hostKeyCallback(knownHostsFile string) (ssh.HostKeyCallback, error) {
	if knownHostsFile == "" {
		logger.Warn("remote.known_hosts not set, host key is not verified")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts %s: %w", knownHostsFile, err)
	}
	return cb, nil
}

func loadPrivateKey(file, passphrase string) (ssh.Signer, error) {
	key, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
	}
	return ssh.ParsePrivateKey(key)
}

// Run 执行命令；ctx 取消时关闭 session
func (c *SSHChannel) Run(ctx context.Context, command string) (string, error) {
	sess, err := c.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("new ssh session: %w", err)
	}
	defer sess.Close()

	var out bytes.Buffer
	sess.Stdout = &out
	sess.Stderr = &out

	logCommand(transportNative, command)
	if err := c.wait(ctx, sess, func() error { return sess.Run(command) }); err != nil {
		return out.String(), fmt.Errorf("remote %q: %w", command, err)
	}
	return out.String(), nil
}

// Fetch 远端 tar 打包输出到 stdout，本地边收边解包
func (c *SSHChannel) Fetch(ctx context.Context, remoteDir, localDir string) error {
	sess, err := c.client.NewSession()
	if err != nil {
		return fmt.Errorf("new ssh session: %w", err)
	}
	defer sess.Close()

	stdout, err := sess.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	sess.Stderr = &stderr

	command := "tar cf - -C " + shellQuote(remoteDir) + " ."
	logCommand(transportNative, command+" => "+localDir)
	if err := sess.Start(command); err != nil {
		return fmt.Errorf("start %q: %w", command, err)
	}

	return c.wait(ctx, sess, func() error {
		n, exErr := ExtractTar(stdout, localDir)
		if exErr != nil {
			// 远端 tar 可能阻塞在写 stdout 上，直接关闭 session
			_ = sess.Close()
			return fmt.Errorf("extract into %s: %w", localDir, exErr)
		}
		if waitErr := sess.Wait(); waitErr != nil {
			if !tarChangedWhileReading(waitErr) {
				return fmt.Errorf("remote %q: %w: %s", command, waitErr, bytes.TrimSpace(stderr.Bytes()))
			}
			// 采集进行中数据库仍在写入，归档已完整解出
			logger.Warn("remote files changed while archiving", zap.String("dir", remoteDir),
				zap.ByteString("stderr", bytes.TrimSpace(stderr.Bytes())))
		}
		logger.Info("remote data copied", zap.String("from", remoteDir), zap.String("to", localDir), zap.Int("files", n))
		return nil
	})
}

// tarChangedWhileReading GNU tar 退出码 1 表示有文件在打包过程中被修改
func tarChangedWhileReading(err error) bool {
	var exit interface{ ExitStatus() int }
	return errors.As(err, &exit) && exit.ExitStatus() == 1
}

// Push 先写临时文件再 mv，正在运行的旧程序不受影响
func (c *SSHChannel) Push(ctx context.Context, localFile, remotePath string) error {
	f, err := os.Open(localFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", localFile, err)
	}
	defer f.Close()

	sess, err := c.client.NewSession()
	if err != nil {
		return fmt.Errorf("new ssh session: %w", err)
	}
	defer sess.Close()

	var out bytes.Buffer
	sess.Stdin = f
	sess.Stdout = &out
	sess.Stderr = &out

	tmp := remotePath + ".tmp"
	command := fmt.Sprintf("mkdir -p %s && cat > %s && chmod 755 %s && mv -f %s %s",
		shellQuote(path.Dir(remotePath)), shellQuote(tmp), shellQuote(tmp), shellQuote(tmp), shellQuote(remotePath))
	logCommand(transportNative, localFile+" => "+command)
	return c.wait(ctx, sess, func() error {
		if err := sess.Run(command); err != nil {
			return fmt.Errorf("push %s: %w: %s", localFile, err, bytes.TrimSpace(out.Bytes()))
		}
		return nil
	})
}

// wait 在独立 goroutine 中执行阻塞调用，ctx 先结束时关闭 session 使其返回
func (c *SSHChannel) wait(ctx context.Context, sess *ssh.Session, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		sess.Close()
		<-done
		return ctx.Err()
	}
}

// Close 关闭连接
func (c *SSHChannel) Close() error {
	return c.client.Close()
}
