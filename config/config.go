package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"

	STTWhisper  = "whisper"
	STTDeepgram = "deepgram"

	DatabaseMemory = "memory"
	DatabaseSQLite = "sqlite3"
	DatabaseMySQL  = "mysql"
	DatabaseBolt   = "bolt"
)

// Config is the service configuration read from the environment.
type Config struct {
	Port      string
	JWTSecret string

	DatabaseDriver string
	DatabaseDSN    string

	ModelBackend string

	GCloudProject      string
	GCloudRegion       string
	ServiceAccountKey  []byte
	GeminiModel        string
	CacheServiceTokens bool

	OpenAIKey   string
	OpenAIModel string
	STTBackend  string
	DeepgramKey string

	// Structure is the optional JSON schema the model reply must follow.
	Structure map[string]interface{}
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:           get("PORT", "8080"),
		JWTSecret:      getenv("JWT_SECRET"),
		DatabaseDriver: get("DATABASE_DRIVER", DatabaseMemory),
		DatabaseDSN:    get("DATABASE_DSN", ""),
		ModelBackend:   get("MODEL_BACKEND", BackendGemini),
		GCloudProject:  get("GCLOUD_PROJECT", ""),
		GCloudRegion:   get("GCLOUD_REGION", "us-central1"),
		GeminiModel:    get("GEMINI_MODEL", ""),
		OpenAIKey:      get("OPEN_AI_API_KEY", ""),
		OpenAIModel:    get("OPENAI_MODEL", ""),
		STTBackend:     get("STT_BACKEND", STTWhisper),
		DeepgramKey:    get("DEEPGRAM_API_KEY", ""),
	}

	if v := get("CACHE_SERVICE_TOKENS", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrapf(err, "CACHE_SERVICE_TOKENS=%q", v)
		}
		cfg.CacheServiceTokens = b
	}

	if key := get("GOOGLE_SERVICE_ACCOUNT_KEY", ""); key != "" {
		data, err := readInline(key)
		if err != nil {
			return nil, errors.Wrap(err, "GOOGLE_SERVICE_ACCOUNT_KEY")
		}
		cfg.ServiceAccountKey = data
	}

	if path := get("NOTE_STRUCTURE_FILE", ""); path != "" {
		structure, err := LoadStructure(path)
		if err != nil {
			return nil, err
		}
		cfg.Structure = structure
	}
	return cfg, nil
}

// Validate checks what the service needs to start.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	switch c.DatabaseDriver {
	case DatabaseMemory:
	case DatabaseSQLite, DatabaseMySQL, DatabaseBolt:
		if c.DatabaseDSN == "" {
			return errors.Errorf("DATABASE_DSN must be set for %s", c.DatabaseDriver)
		}
	default:
		return errors.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.ModelBackend {
	case BackendGemini:
		if c.GCloudProject == "" {
			return errors.New("GCLOUD_PROJECT must be set")
		}
		if len(c.ServiceAccountKey) == 0 {
			return errors.New("GOOGLE_SERVICE_ACCOUNT_KEY must be set")
		}
	case BackendOpenAI:
		if c.OpenAIKey == "" {
			return errors.New("OPEN_AI_API_KEY must be set")
		}
		switch c.STTBackend {
		case STTWhisper:
		case STTDeepgram:
			if c.DeepgramKey == "" {
				return errors.New("DEEPGRAM_API_KEY must be set")
			}
		default:
			return errors.Errorf("unknown STT_BACKEND %q", c.STTBackend)
		}
	default:
		return errors.Errorf("unknown MODEL_BACKEND %q", c.ModelBackend)
	}
	return nil
}

// LoadStructure reads a JSON schema written as YAML or JSON.
func LoadStructure(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read structure file")
	}
	var structure map[string]interface{}
	if err := yaml.Unmarshal(data, &structure); err != nil {
		return nil, errors.Wrapf(err, "parse structure file %s", path)
	}
	if len(structure) == 0 {
		return nil, errors.Errorf("structure file %s is empty", path)
	}
	return structure, nil
}

// readInline returns value itself when it holds a JSON document, otherwise
// the contents of the file it names.
func readInline(value string) ([]byte, error) {
	if strings.HasPrefix(strings.TrimSpace(value), "{") {
		return []byte(value), nil
	}
	return os.ReadFile(value)
}
