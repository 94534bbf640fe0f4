package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var valid = validator.New()

var envOnlyKeys = []string{"remote.password", "remote.key_passphrase"}

// Config 全局配置结构体（启动时解析一次，显式注入各组件）
type Config struct {
	Acquisition AcquisitionConfig `yaml:"acquisition" mapstructure:"acquisition" comment:"采集循环配置"`
	Probe       ProbeConfig       `yaml:"probe" mapstructure:"probe" comment:"测速探针配置"`
	Indicator   IndicatorConfig   `yaml:"indicator" mapstructure:"indicator" comment:"状态指示灯配置"`
	Remote      RemoteConfig      `yaml:"remote" mapstructure:"remote" comment:"远程生命周期控制配置"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server" comment:"指标HTTP服务配置"`
	Log         ZapLogConfig      `yaml:"log" mapstructure:"log" comment:"日志配置"`
}

// AcquisitionConfig 采集循环配置
type AcquisitionConfig struct {
	DataPath       string            `yaml:"data_path" mapstructure:"data_path" env:"ACQUISITION_DATA_PATH" validate:"required" comment:"测量数据库存储目录"`
	StoreSuffix    string            `yaml:"store_suffix" mapstructure:"store_suffix" validate:"required" comment:"数据库文件后缀"`
	Table          string            `yaml:"table" mapstructure:"table" validate:"required" comment:"数据表名"`
	Interval       time.Duration     `yaml:"interval" mapstructure:"interval" env:"ACQUISITION_INTERVAL" validate:"required,gt=0" comment:"两轮采集之间的空闲时间（如5s）"`
	Blinks         int               `yaml:"blinks" mapstructure:"blinks" validate:"required,gt=0" comment:"空闲阶段闪烁次数"`
	RunNameRetries int               `yaml:"run_name_retries" mapstructure:"run_name_retries" validate:"gte=0" comment:"同一秒内重名时的重试次数"`
	Interfaces     []InterfaceConfig `yaml:"interfaces" mapstructure:"interfaces" validate:"required,min=1,dive" comment:"按顺序采集的网络接口"`
}

// InterfaceConfig 单个网络接口（address 为空时通过 device 解析）
type InterfaceConfig struct {
	Name    string `yaml:"name" mapstructure:"name" validate:"required" comment:"接口标签，如 WLAN/Ethernet"`
	Address string `yaml:"address" mapstructure:"address" validate:"omitempty,ip" comment:"出站源地址"`
	Device  string `yaml:"device" mapstructure:"device" validate:"required_without=Address" comment:"网卡名，如 wlan0"`
}

// ProbeConfig 外部测速工具配置
type ProbeConfig struct {
	Command string        `yaml:"command" mapstructure:"command" env:"PROBE_COMMAND" validate:"required" comment:"测速命令"`
	Args    []string      `yaml:"args" mapstructure:"args" comment:"附加参数"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" env:"PROBE_TIMEOUT" validate:"required,gt=0" comment:"单次测速超时"`
}

// IndicatorConfig 指示灯配置（无硬件时自动退化为空实现）
type IndicatorConfig struct {
	Enable bool   `yaml:"enable" mapstructure:"enable" env:"INDICATOR_ENABLE" comment:"是否启用GPIO指示灯"`
	Pin    string `yaml:"pin" mapstructure:"pin" validate:"required_if=Enable true" comment:"GPIO引脚名"`
}

// RemoteConfig 远程采集节点配置
type RemoteConfig struct {
	Host           string        `yaml:"host" mapstructure:"host" env:"REMOTE_HOST" comment:"采集节点地址"`
	Port           int           `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535" comment:"SSH端口"`
	User           string        `yaml:"user" mapstructure:"user" env:"REMOTE_USER" comment:"SSH用户名"`
	Password       string        `yaml:"password" mapstructure:"password" env:"REMOTE_PASSWORD" comment:"SSH密码"`
	PrivateKeyPath string        `yaml:"private_key_path" mapstructure:"private_key_path" comment:"私钥路径"`
	KeyPassphrase  string        `yaml:"key_passphrase" mapstructure:"key_passphrase" comment:"私钥口令"`
	KnownHosts     string        `yaml:"known_hosts" mapstructure:"known_hosts" comment:"known_hosts 文件，为空时不校验主机密钥"`
	DialTimeout    time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout" validate:"gt=0" comment:"建连超时"`
	Transport      string        `yaml:"transport" mapstructure:"transport" validate:"oneof=native openssh" comment:"远程通道实现"`
	Session        string        `yaml:"session" mapstructure:"session" validate:"required" comment:"screen会话名"`
	ProjectPath    string        `yaml:"project_path" mapstructure:"project_path" comment:"远端程序目录"`
	DataPath       string        `yaml:"data_path" mapstructure:"data_path" comment:"远端数据目录"`
	Binary         string        `yaml:"binary" mapstructure:"binary" validate:"required" comment:"远端程序文件名"`
	ConfigPath     string        `yaml:"config_path" mapstructure:"config_path" comment:"远端配置文件路径"`
	LocalDataPath  string        `yaml:"local_data_path" mapstructure:"local_data_path" comment:"本地数据目录"`
	LocalBinary    string        `yaml:"local_binary" mapstructure:"local_binary" comment:"update推送的本地程序，默认当前可执行文件"`
}

// ServerConfig 指标HTTP服务配置
type ServerConfig struct {
	Enable       bool          `yaml:"enable" mapstructure:"enable" env:"HTTP_ENABLE" comment:"是否暴露/metrics"`
	Addr         string        `yaml:"addr" mapstructure:"addr" env:"HTTP_ADDR" validate:"required,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"required,gt=0" comment:"读取超时时间"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"required,gt=0" comment:"写入超时时间"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"required,gt=0" comment:"空闲连接超时时间"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" env:"LOG_LEVEL" validate:"required,oneof=debug info warn error" comment:"日志级别" default:"info"`
	Format string `yaml:"format" mapstructure:"format" env:"LOG_FORMAT" validate:"required,oneof=json console" comment:"日志格式（json/console）" default:"json"`
	Path   string `yaml:"path" mapstructure:"path" env:"LOG_PATH" validate:"required" comment:"日志存储路径" default:"./logs"`
	MaxAge int    `yaml:"max_age" mapstructure:"max_age" env:"LOG_MAX_AGE" validate:"required,gt=0" comment:"日志文件最大保存天数" default:"7"`
}

// NewDefaultConfig 创建默认配置（所有字段兜底，避免空指针/非法值）
func NewDefaultConfig() *Config {
	return &Config{
		Acquisition: AcquisitionConfig{
			DataPath:       "./data",
			StoreSuffix:    "__ispeed.db",
			Table:          "ispeed_data",
			Interval:       5 * time.Second,
			Blinks:         4,
			RunNameRetries: 3,
			Interfaces: []InterfaceConfig{
				{Name: "WLAN", Device: "wlan0"},
				{Name: "Ethernet", Device: "eth0"},
			},
		},
		Probe: ProbeConfig{
			Command: "speedtest-cli",
			Args:    []string{},
			Timeout: 120 * time.Second,
		},
		Indicator: IndicatorConfig{
			Enable: false,
			Pin:    "GPIO21",
		},
		Remote: RemoteConfig{
			Port:          22,
			DialTimeout:   30 * time.Second,
			Transport:     "native",
			Session:       "ispeed",
			ProjectPath:   "ispeed",
			DataPath:      "ispeed/data",
			Binary:        "ispeed",
			LocalDataPath: "./data",
		},
		Server: ServerConfig{
			Enable:       false,
			Addr:         "0.0.0.0:9469",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Log: ZapLogConfig{
			Level:  "info",
			Format: "json",
			Path:   "./logs",
			MaxAge: 7,
		},
	}
}

// LoadConfigWithCli 支持 time.Duration，(Flags + YAML + ENV)
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	// 1. 绑定 Cobra Flags → Viper（flag 名中划线，配置键下划线：server.read-timeout -> server.read_timeout）
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" || f.Name == "runmode" {
			return
		}
		bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}

	// 2. 解析配置文件 (--config)，未指定时仅使用默认值
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 3. 绑定环境变量 ENV -> Viper （ISPEED_REMOTE_HOST -> remote.host）
	v.SetEnvPrefix("ispeed")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// 口令类配置不提供 flag，AutomaticEnv 只认识已注册的键
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	return decode(v)
}

// decode 反序列化到结构体（默认值兜底）并校验
func decode(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	decoderConfig := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           cfg,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	// 	1，校验采集配置
	if err := c.Acquisition.Validate(); err != nil {
		return err
	}
	// 	2，校验日志配置
	if err := c.Log.Validate(); err != nil {
		return err
	}
	// 	3，校验HTTP服务配置（仅启用时）
	if c.Server.Enable {
		if err := c.Server.Validate(); err != nil {
			return err
		}
	}
	return nil
}
