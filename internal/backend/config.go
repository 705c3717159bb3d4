package backend

import (
	"errors"
	"fmt"

	"pitaka/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		AppName:       appConfig.AppName,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		MongoURI:      appConfig.MongoURI,
		MongoDatabase: appConfig.MongoDatabase,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case MongoBackend:
		if c.MongoURI == "" {
			return errors.New("MongoDB URI is required for mongo backend")
		}
		if c.MongoDatabase == "" {
			return errors.New("MongoDB database is required for mongo backend")
		}
	case MemoryBackend:
		// nothing to check
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MongoBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
