package agent

import (
	"github.com/spf13/cobra"
)

func initRemoteFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	prefix := "remote."

	f.String(prefix+"host", defaultCfg.Remote.Host, "-> Collector node address | 采集节点地址")
	f.Int(prefix+"port", defaultCfg.Remote.Port, "-> SSH port | SSH端口")
	f.String(prefix+"user", defaultCfg.Remote.User, "-> SSH user | SSH用户名")
	f.String(prefix+"private-key-path", defaultCfg.Remote.PrivateKeyPath, "-> SSH private key | 私钥路径")
	f.String(prefix+"known-hosts", defaultCfg.Remote.KnownHosts, "-> known_hosts file | known_hosts文件")
	f.Duration(prefix+"dial-timeout", defaultCfg.Remote.DialTimeout, "-> SSH dial timeout | 建连超时")
	f.String(prefix+"transport", defaultCfg.Remote.Transport, "-> Remote channel [native,openssh] | 远程通道实现")
	f.String(prefix+"session", defaultCfg.Remote.Session, "-> Detached screen session name | screen会话名")
	f.String(prefix+"project-path", defaultCfg.Remote.ProjectPath, "-> Remote program directory | 远端程序目录")
	f.String(prefix+"data-path", defaultCfg.Remote.DataPath, "-> Remote data directory | 远端数据目录")
	f.String(prefix+"binary", defaultCfg.Remote.Binary, "-> Remote program file name | 远端程序文件名")
	f.String(prefix+"config-path", defaultCfg.Remote.ConfigPath, "-> Remote config file | 远端配置文件")
	f.String(prefix+"local-data-path", defaultCfg.Remote.LocalDataPath, "-> Local data directory | 本地数据目录")
	f.String(prefix+"local-binary", defaultCfg.Remote.LocalBinary, "-> Program pushed by update | update推送的本地程序")
}
