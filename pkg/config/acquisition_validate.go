package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"
)

// 表名直接拼接进 SQL，只允许标识符字符
var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate 采集配置校验
// 接口标签不能重复（同一个 Run 内按标签区分数据）
// 闪烁子区间不能短于 1ms，否则指示灯肉眼不可见
func (a *AcquisitionConfig) Validate() error {
	if err := valid.Struct(a); err != nil {
		return err
	}
	if !tableNameRe.MatchString(a.Table) {
		return fmt.Errorf("acquisition.table %q is not a valid identifier", a.Table)
	}
	if strings.ContainsAny(a.StoreSuffix, `/\`) {
		return fmt.Errorf("acquisition.store_suffix %q must not contain a path separator", a.StoreSuffix)
	}
	if a.Interval/time.Duration(2*a.Blinks) < time.Millisecond {
		return fmt.Errorf("acquisition.interval %s too short for %d blinks", a.Interval, a.Blinks)
	}

	seen := map[string]bool{}
	for _, iface := range a.Interfaces {
		name := strings.TrimSpace(iface.Name)
		if name == "" {
			return errors.New("acquisition.interfaces: name cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("acquisition.interfaces duplicated entry: %q", name)
		}
		seen[name] = true
		if strings.ContainsAny(iface.Device, " \t\r\n/\\") {
			return fmt.Errorf("acquisition.interfaces: device %q contains invalid characters", iface.Device)
		}
	}
	return nil
}

// Validate HTTP服务配置校验
func (h *ServerConfig) Validate() error {
	if err := valid.Struct(h); err != nil {
		return err
	}
	// 	用net包解析地址，验证格式合法性
	if _, err := net.ResolveTCPAddr("tcp", h.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", h.Addr, err)
	}
	return nil
}

// Validate 远程配置校验，只在 init/finish/copy/update 时调用
func (r *RemoteConfig) Validate() error {
	if err := valid.Struct(r); err != nil {
		return err
	}
	if strings.TrimSpace(r.Host) == "" {
		return errors.New("remote.host cannot be empty")
	}
	if strings.TrimSpace(r.User) == "" {
		return errors.New("remote.user cannot be empty")
	}
	if r.DataPath == "" || r.LocalDataPath == "" {
		return errors.New("remote.data_path and remote.local_data_path are required")
	}
	// screen 会话名出现在远端命令行中
	if strings.ContainsAny(r.Session, " \t'\"$;&|") {
		return fmt.Errorf("remote.session %q contains shell metacharacters", r.Session)
	}
	if r.Transport == "native" && r.Password == "" && r.PrivateKeyPath == "" {
		return errors.New("remote: native transport needs password or private_key_path")
	}
	return nil
}
