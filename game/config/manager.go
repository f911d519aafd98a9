package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrInvalidName    = errors.New("invalid configuration name")
)

// DefaultConfigName is the level preferred as the default
const DefaultConfigName = "classic"

// DefaultMazeMoves is the move budget given to levels loaded from bare .txt mazes
const DefaultMazeMoves = 100

// extensions lists the supported level formats in lookup order
var extensions = []string{".json", ".yaml", ".yml", ".txt"}

// Manager handles level configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	mu            sync.RWMutex
}

var _ service.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// configID strips a known extension from a name
func configID(name string) string {
	ext := filepath.Ext(name)
	for _, known := range extensions {
		if ext == known {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// validName rejects names that would escape the config directory
func validName(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, id)
	}
	return nil
}

// LoadConfig loads a configuration by ID. The ID may carry its extension;
// without one the formats are tried in order (.json, .yaml, .yml, .txt).
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := configID(name)
	if err := validName(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(name)
}

// loadLocked reads, decodes and caches a level. The caller must hold m.mu.
func (m *Manager) loadLocked(name string) (*engine.GameConfig, error) {
	id := configID(name)
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	path, err := m.findFile(name)
	if err != nil {
		return nil, err
	}

	config, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	m.configs[id] = config
	return config, nil
}

// LoadFile reads, decodes and validates a single level file of any supported format
func LoadFile(path string) (*engine.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := decodeConfig(configID(filepath.Base(path)), filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// findFile locates the file backing a level name
func (m *Manager) findFile(name string) (string, error) {
	if id := configID(name); id != name {
		path := filepath.Join(m.configDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", ErrConfigNotFound
		}
		return path, nil
	}

	for _, ext := range extensions {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

// decodeConfig turns file contents into a level according to its extension
func decodeConfig(id, ext string, data []byte) (*engine.GameConfig, error) {
	var config engine.GameConfig
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case ".txt":
		layout, err := engine.ReadLayout(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		config = engine.GameConfig{
			Name:          id,
			Description:   fmt.Sprintf("Maze loaded from %s%s", id, ext),
			Layout:        layout,
			StartingMoves: DefaultMazeMoves,
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &config, nil
}

// ListConfigs returns information about all loadable levels, sorted by ID.
// Invalid files are skipped.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	seen := make(map[string]bool)
	var configs []*service.ConfigInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := configID(entry.Name())
		if id == entry.Name() || seen[id] {
			continue
		}

		config, err := m.LoadConfig(id)
		if err != nil {
			continue
		}
		seen[id] = true

		filename := entry.Name()
		if path, err := m.findFile(id); err == nil {
			filename = filepath.Base(path)
		}
		info := &service.ConfigInfo{
			Filename:      filename,
			ConfigID:      id,
			Name:          config.Name,
			Description:   config.Description,
			StartingMoves: config.StartingMoves,
		}
		if maze, err := engine.ParseMaze(config.Layout); err == nil {
			info.Rows, info.Cols = maze.Dimensions()
			info.Goals = engine.CountTiles(maze.Tiles(), engine.Goal)
			for _, e := range maze.Entities() {
				if e.IsCrate() {
					info.Crates++
				}
			}
		}
		configs = append(configs, info)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// ReloadConfig re-reads a single level from disk, replacing the cached copy.
// Sessions already running keep the config they were created with.
func (m *Manager) ReloadConfig(name string) error {
	id := configID(name)
	if err := validName(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	previous, cached := m.configs[id]
	delete(m.configs, id)
	config, err := m.loadLocked(name)
	if err != nil {
		if cached {
			m.configs[id] = previous
		}
		return err
	}
	if m.defaultConfig == previous && cached {
		m.defaultConfig = config
	}
	return nil
}

// RefreshCache drops every cached level and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	return m.loadDefaultConfig()
}

// loadDefaultConfig picks classic, then the first listed level, then the
// built-in engine level.
func (m *Manager) loadDefaultConfig() error {
	config, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			config = engine.DefaultGameConfig()
		} else if config, err = m.LoadConfig(configs[0].ConfigID); err != nil {
			config = engine.DefaultGameConfig()
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig validates a level and writes it as <name>.json
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	id := configID(name)
	if err := validName(id); err != nil {
		return err
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(m.configDir, id+".json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()

	return nil
}
