package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config - конфигурация сервера мира. YAML-файл опционален:
// без него работаем на дефолтах (удобно в тестах и разработке).
type Config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// Seed - мастер-сид генерации секторов. 0 = выбрать случайно при старте.
	Seed int64 `yaml:"seed"`

	// Размер мировой сетки в секторах
	MapWidth  int `yaml:"map_width"`
	MapHeight int `yaml:"map_height"`
}

func defaults() Config {
	return Config{
		Port:      "8080",
		DBPath:    "world.db",
		MapWidth:  16,
		MapHeight: 16,
	}
}

// Load читает конфиг из YAML-файла. Пустой путь - чистые дефолты.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.MapWidth <= 0 || c.MapHeight <= 0 {
		return fmt.Errorf("map dimensions must be positive (got %dx%d)", c.MapWidth, c.MapHeight)
	}
	return nil
}
