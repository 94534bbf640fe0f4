// Package netif 把配置中的接口（固定地址或网卡名）解析为测速用的本地源地址。
package netif

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/logger"
)

// ErrNoAddress 网卡当前没有可用的 IPv4 地址
var ErrNoAddress = errors.New("interface has no IPv4 address")

// Target 一个按顺序采集的接口
type Target struct {
	Name    string // 标签，写入数据库 interface 列
	Address string // 固定源地址，优先
	Device  string // 网卡名，Address 为空时每轮解析
}

// Lister 列出本机网卡，测试中可替换
type Lister func() ([]psnet.InterfaceStat, error)

// Resolver 源地址解析器
type Resolver struct {
	list Lister
}

// NewResolver 默认使用 gopsutil 读取网卡表
func NewResolver(list Lister) *Resolver {
	if list == nil {
		// psnet.Interfaces 返回具名类型 InterfaceStatList，需包一层
		list = func() ([]psnet.InterfaceStat, error) { return psnet.Interfaces() }
	}
	return &Resolver{list: list}
}

// Targets 按声明顺序转换配置
func Targets(ifaces []config.InterfaceConfig) []Target {
	out := make([]Target, 0, len(ifaces))
	for _, i := range ifaces {
		out = append(out, Target{Name: i.Name, Address: i.Address, Device: i.Device})
	}
	return out
}

// Resolve 返回 target 的源地址。网卡地址可能随 DHCP 变化，所以每次都重新读取
func (r *Resolver) Resolve(t Target) (string, error) {
	if t.Address != "" {
		return t.Address, nil
	}
	ifaces, err := r.list()
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Name != t.Device {
			continue
		}
		for _, a := range iface.Addrs {
			if addr, ok := ipv4(a.Addr); ok {
				return addr, nil
			}
		}
		return "", fmt.Errorf("%s: %w", t.Device, ErrNoAddress)
	}
	return "", fmt.Errorf("device %q not found", t.Device)
}

// CheckLocal 启动时检查固定地址是否属于本机，只告警不失败
func (r *Resolver) CheckLocal(targets []Target) {
	ifaces, err := r.list()
	if err != nil {
		logger.Warn("cannot list local interfaces", zap.Error(err))
		return
	}
	local := map[string]string{}
	for _, iface := range ifaces {
		for _, a := range iface.Addrs {
			if p, err := netip.ParsePrefix(a.Addr); err == nil {
				local[p.Addr().String()] = iface.Name
			}
		}
	}
	for _, t := range targets {
		if t.Address == "" {
			continue
		}
		if dev, ok := local[t.Address]; ok {
			logger.Debug("source address is local", zap.String("interface", t.Name), zap.String("device", dev))
		} else {
			logger.Warn("source address not assigned to any local interface",
				zap.String("interface", t.Name), zap.String("address", t.Address))
		}
	}
}

func ipv4(cidr string) (string, bool) {
	s := cidr
	if !strings.Contains(s, "/") {
		s += "/32"
	}
	p, err := netip.ParsePrefix(s)
	if err != nil || !p.Addr().Is4() {
		return "", false
	}
	return p.Addr().String(), true
}
