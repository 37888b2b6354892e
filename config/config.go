package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MonitorAddress string `mapstructure:"monitor_address"`
}

type DatabaseConfig struct {
	// gorm 或 pq，两套实现行为一致
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig 游戏规则参数
type GameConfig struct {
	MaxHealth  int           `mapstructure:"max_health"`
	MaxPlayers int           `mapstructure:"max_players"`
	TimeLimit  int           `mapstructure:"time_limit"` // 分钟
	RoomTTL    time.Duration `mapstructure:"room_ttl"`   // 闲置回收阈值
}

// EngineConfig 叙述者引擎选择。mode 为 local 时完全使用本地启发式；
// 为 remote 时委托外部推理服务，失败自动回退本地。
type EngineConfig struct {
	Mode     string        `mapstructure:"mode"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.monitor_address", ":9090")
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("game.max_health", 5)
	viper.SetDefault("game.max_players", 4)
	viper.SetDefault("game.time_limit", 30)
	viper.SetDefault("game.room_ttl", 2*time.Hour)
	viper.SetDefault("engine.mode", "local")
	viper.SetDefault("engine.timeout", 3*time.Second)

	viper.AutomaticEnv()

	// 没有配置文件时用默认值起服，文件格式错误才算失败
	err = viper.ReadInConfig()
	if err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
