package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	OAuthConfig
	GatewayConfig
	TabsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFile() string
	GetCredentialsFile() string
}

// File is the on-disk YAML shape. Environment variables override any value
// set here; unset values fall back to the built-in defaults.
type File struct {
	AppName         string      `yaml:"app_name"`
	Env             string      `yaml:"env"`
	LogLevel        string      `yaml:"log_level"`
	LogFile         string      `yaml:"log_file"`
	CredentialsFile string      `yaml:"credentials_file"`
	OAuth           OAuthFile   `yaml:"oauth"`
	Gateway         GatewayFile `yaml:"gateway"`
	Tabs            TabsFile    `yaml:"tabs"`
}

type OAuthFile struct {
	ClientID        string   `yaml:"client_id"`
	RedirectURI     string   `yaml:"redirect_uri"`
	Scopes          []string `yaml:"scopes"`
	AuthURL         string   `yaml:"auth_url"`
	Issuer          string   `yaml:"issuer"`
	Discovery       *bool    `yaml:"discovery"`
	VerifySignature *bool    `yaml:"verify_signature"`
	Launcher        string   `yaml:"launcher"`
}

type GatewayFile struct {
	Endpoint string `yaml:"endpoint"`
}

type TabsFile struct {
	DevToolsURL  string `yaml:"devtools_url"`
	SnapshotFile string `yaml:"snapshot_file"`
	Scope        string `yaml:"scope"`
	Recency      string `yaml:"recency"`
}

// Override adjusts file values after loading, typically from CLI flags.
type Override func(*File)

type mainConfig struct {
	EnvVars
	OAuth
	Gateway
	Tabs
}

// New returns a Config backed by environment variables and defaults only.
func New() Config {
	return newMainConfig(&File{})
}

// Load reads the YAML file at path (when non-empty) and layers environment
// variables on top of it.
func Load(path string, overrides ...Override) (Config, error) {
	file := &File{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, file); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	for _, override := range overrides {
		override(file)
	}
	return newMainConfig(file), nil
}

func newMainConfig(file *File) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{file: file},
		OAuth:   OAuth{file: &file.OAuth},
		Gateway: Gateway{file: &file.Gateway},
		Tabs:    Tabs{file: &file.Tabs},
	}
}
