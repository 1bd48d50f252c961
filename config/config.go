// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads the YAML configuration used by the retrievit CLI.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig configures the OpenAI-compatible embedding endpoint.
// The API token is read from the environment variable named by APIKeyEnv,
// never from the file itself.
type EmbedderConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	CacheSize int    `yaml:"cache_size"`
}

// RetrieverConfig configures the retrieval mode and fusion weights.
type RetrieverConfig struct {
	Mode         string  `yaml:"mode"`
	DenseWeight  float64 `yaml:"dense_weight"`
	SparseWeight float64 `yaml:"sparse_weight"`
	Overfetch    int     `yaml:"overfetch"`
}

// SplitterConfig configures document chunking, in characters.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// Config is the root CLI configuration.
type Config struct {
	DatabasePath string          `yaml:"database_path"`
	Embedder     EmbedderConfig  `yaml:"embedder"`
	Retriever    RetrieverConfig `yaml:"retriever"`
	Splitter     SplitterConfig  `yaml:"splitter"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultPath returns ~/.config/retrievit/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "retrievit", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DatabasePath: "retrievit.db",
		Embedder: EmbedderConfig{
			Host:      "http://localhost:11434/v1",
			Model:     "embeddinggemma",
			APIKeyEnv: "RETRIEVIT_API_TOKEN",
			CacheSize: 2048,
		},
		Retriever: RetrieverConfig{
			Mode:         "hybrid",
			DenseWeight:  0.6,
			SparseWeight: 0.4,
			Overfetch:    2,
		},
		Splitter: SplitterConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = def.DatabasePath
	}
	if cfg.Embedder.Host == "" {
		cfg.Embedder.Host = def.Embedder.Host
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = def.Embedder.Model
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = def.Embedder.APIKeyEnv
	}
	if cfg.Embedder.CacheSize == 0 {
		cfg.Embedder.CacheSize = def.Embedder.CacheSize
	}
	if cfg.Retriever.Mode == "" {
		cfg.Retriever.Mode = def.Retriever.Mode
	}
	if cfg.Retriever.DenseWeight == 0 && cfg.Retriever.SparseWeight == 0 {
		cfg.Retriever.DenseWeight = def.Retriever.DenseWeight
		cfg.Retriever.SparseWeight = def.Retriever.SparseWeight
	}
	if cfg.Retriever.Overfetch == 0 {
		cfg.Retriever.Overfetch = def.Retriever.Overfetch
	}
	if cfg.Splitter.ChunkSize == 0 {
		cfg.Splitter.ChunkSize = def.Splitter.ChunkSize
	}
	if cfg.Splitter.ChunkOverlap == 0 {
		cfg.Splitter.ChunkOverlap = def.Splitter.ChunkOverlap
	}
}
