package netif

import (
	"errors"
	"testing"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ispeed-collector/pkg/config"
)

func fakeLister(ifaces ...psnet.InterfaceStat) Lister {
	return func() ([]psnet.InterfaceStat, error) { return ifaces, nil }
}

func TestResolvePrefersFixedAddress(t *testing.T) {
	r := NewResolver(func() ([]psnet.InterfaceStat, error) {
		return nil, errors.New("must not be called")
	})
	addr, err := r.Resolve(Target{Name: "WLAN", Address: "192.168.0.210", Device: "wlan0"})
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.210", addr)
}

func TestResolveDeviceFirstIPv4(t *testing.T) {
	r := NewResolver(fakeLister(
		psnet.InterfaceStat{Name: "lo", Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
		psnet.InterfaceStat{Name: "eth0", Addrs: psnet.InterfaceAddrList{
			{Addr: "fe80::1/64"},
			{Addr: "192.168.0.209/24"},
		}},
	))
	addr, err := r.Resolve(Target{Name: "Ethernet", Device: "eth0"})
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.209", addr)
}

func TestResolveDeviceWithoutIPv4(t *testing.T) {
	r := NewResolver(fakeLister(
		psnet.InterfaceStat{Name: "wlan0", Addrs: psnet.InterfaceAddrList{{Addr: "fe80::2/64"}}},
	))
	_, err := r.Resolve(Target{Name: "WLAN", Device: "wlan0"})
	assert.ErrorIs(t, err, ErrNoAddress)

	_, err = r.Resolve(Target{Name: "LTE", Device: "wwan0"})
	assert.Error(t, err)
}

func TestTargetsKeepDeclaredOrder(t *testing.T) {
	targets := Targets([]config.InterfaceConfig{
		{Name: "WLAN", Address: "192.168.0.210"},
		{Name: "Ethernet", Device: "eth0"},
	})
	require.Len(t, targets, 2)
	assert.Equal(t, "WLAN", targets[0].Name)
	assert.Equal(t, "eth0", targets[1].Device)
}

func TestDefaultListerReadsHostInterfaces(t *testing.T) {
	r := NewResolver(nil)
	_, err := r.Resolve(Target{Name: "Ethernet", Device: "no-such-dev0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-dev0")

	addr, err := r.Resolve(Target{Name: "WLAN", Address: "10.0.0.2"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", addr)
}
