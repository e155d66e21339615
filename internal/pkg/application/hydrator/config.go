package hydrator

import (
	"io"
	"regexp"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type EntityInfo struct {
	TypePattern string `yaml:"typePattern"`
	Type        string `yaml:"type"`
}

// Matches reports if typ, on the form entity--bundle, is served according to this info
func (ei EntityInfo) Matches(typ string) bool {
	if ei.Type != "" {
		return ei.Type == typ
	}

	if ei.TypePattern == "" {
		return false
	}

	regexpForType, err := regexp.CompilePOSIX(ei.TypePattern)
	if err != nil {
		return false
	}

	return regexpForType.MatchString(typ)
}

type RegistrationInfo struct {
	Entities []EntityInfo `yaml:"entities"`
}

type SourceConfig struct {
	Endpoint    string             `yaml:"endpoint"`
	PathPrefix  string             `yaml:"pathPrefix"`
	MaxDepth    *int               `yaml:"maxDepth"`
	Headers     map[string]string  `yaml:"headers"`
	Fields      FieldConfig        `yaml:"fields"`
	Information []RegistrationInfo `yaml:"information"`
	Debug       bool               `yaml:"debug"`
}

// Serves reports if the source has registered the given entity type
func (sc *SourceConfig) Serves(typ string) bool {
	if len(sc.Information) == 0 {
		return true
	}

	for _, reginfo := range sc.Information {
		for _, entityInfo := range reginfo.Entities {
			if entityInfo.Matches(typ) {
				return true
			}
		}
	}

	return false
}

type FieldConfig struct {
	// Patterns are regular expressions for attribute and relationship names to keep
	Patterns []string `yaml:"patterns"`
	// Names are kept as is in addition to the patterns
	Names              []string          `yaml:"names"`
	RelationshipGroups []string          `yaml:"relationshipGroups"`
	ValueProcessors    map[string]string `yaml:"valueProcessors"`
}

type Tenant struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Sources []SourceConfig `yaml:"sources"`
}

type CacheConfig struct {
	// Driver is one of memory, badger or postgres
	Driver string        `yaml:"driver"`
	Dir    string        `yaml:"dir"`
	TTL    time.Duration `yaml:"ttl"`
}

type Config struct {
	Tenants []Tenant    `yaml:"tenants"`
	Cache   CacheConfig `yaml:"cache"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)

	return cfg, err
}
