// Package config loads the YAML configuration file of the replayr command.
package config

import (
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"time"

	replayr "github.com/HRemonen/Replayr"
	"gopkg.in/yaml.v3"
)

// Config is the content of a configuration file.
//
//	store:
//	  driver: sqlite
//	  dsn: replayr.db
//	fetcher:
//	  timeout: 10s
//	  base_url: https://api.example.com
//	  ignore_robots: true
//	server:
//	  addr: 127.0.0.1:8000
type Config struct {
	Store   Store   `yaml:"store"`
	Fetcher Fetcher `yaml:"fetcher"`
	Server  Server  `yaml:"server"`
}

type Store struct {
	// Driver is one of memory, sqlite or postgres.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Fetcher struct {
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	BaseURL        string        `yaml:"base_url"`
	IgnoreRobots   bool          `yaml:"ignore_robots"`
	AllowedURLs    []string      `yaml:"allowed_urls"`
	DisallowedURLs []string      `yaml:"disallowed_urls"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store: Store{
			Driver: "sqlite",
			DSN:    "replayr.db",
		},
		Fetcher: Fetcher{
			Timeout:   10 * time.Second,
			UserAgent: "Replayr/1.0",
		},
		Server: Server{
			Addr: "127.0.0.1:8000",
		},
	}
}

// Load reads the file at path over the defaults. A missing file is not an
// error; an empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// FetcherOptions turns the fetcher section into replayr options.
func (c Config) FetcherOptions() ([]replayr.Options, error) {
	options := []replayr.Options{
		replayr.WithClient(&http.Client{Timeout: c.Fetcher.Timeout}),
		replayr.WithIgnoreRobots(c.Fetcher.IgnoreRobots),
		replayr.WithUserAgent(c.Fetcher.UserAgent),
	}

	if c.Fetcher.BaseURL != "" {
		base, err := url.Parse(c.Fetcher.BaseURL)
		if err != nil {
			return nil, err
		}
		options = append(options, replayr.WithBaseURL(base))
	}

	if len(c.Fetcher.AllowedURLs) > 0 {
		options = append(options, replayr.WithAllowedURLs(c.Fetcher.AllowedURLs))
	}

	if len(c.Fetcher.DisallowedURLs) > 0 {
		options = append(options, replayr.WithDisallowedURLs(c.Fetcher.DisallowedURLs))
	}

	return options, nil
}
