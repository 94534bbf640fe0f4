package agent

import (
	"github.com/spf13/cobra"
)

func initAcquisitionFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	prefix := "acquisition."

	f.String(prefix+"data-path", defaultCfg.Acquisition.DataPath, "-> Directory of run stores | 测量数据库目录")
	f.String(prefix+"store-suffix", defaultCfg.Acquisition.StoreSuffix, "-> Run store file suffix | 数据库文件后缀")
	f.String(prefix+"table", defaultCfg.Acquisition.Table, "-> Measurement table name | 数据表名")
	f.Duration(prefix+"interval", defaultCfg.Acquisition.Interval, "-> Idle time between cycles | 两轮采集之间的空闲时间")
	f.Int(prefix+"blinks", defaultCfg.Acquisition.Blinks, "-> Indicator blinks per idle phase | 空闲阶段闪烁次数")
	f.Int(prefix+"run-name-retries", defaultCfg.Acquisition.RunNameRetries, "-> Retries when the run name is taken | 重名重试次数")
}

func initProbeFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	prefix := "probe."

	f.String(prefix+"command", defaultCfg.Probe.Command, "-> Speed test command | 测速命令")
	f.StringSlice(prefix+"args", defaultCfg.Probe.Args, "-> Extra speed test arguments | 附加参数")
	f.Duration(prefix+"timeout", defaultCfg.Probe.Timeout, "-> Timeout of one speed test | 单次测速超时")
}

func initIndicatorFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	prefix := "indicator."

	f.Bool(prefix+"enable", defaultCfg.Indicator.Enable, "-> Drive the GPIO status LED | 启用GPIO指示灯")
	f.String(prefix+"pin", defaultCfg.Indicator.Pin, "-> GPIO pin name | GPIO引脚名")
}
