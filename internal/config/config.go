package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sciv/internal/command"
	"sciv/internal/errors"
	"sciv/internal/files"

	"gopkg.in/yaml.v3"
)

// Action names accepted in bindings.
const (
	ActionNext           = "next"
	ActionPrevious       = "previous"
	ActionAdvance        = "advance"
	ActionBack           = "back"
	ActionFirst          = "first"
	ActionLast           = "last"
	ActionGoto           = "goto"
	ActionOrderNone      = "order-none"
	ActionOrderName      = "order-name"
	ActionOrderNameDesc  = "order-name-desc"
	ActionOrderMtime     = "order-mtime"
	ActionOrderMtimeDesc = "order-mtime-desc"
	ActionOrderRandom    = "order-random"
	ActionSlideshow      = "slideshow"
	ActionInfo           = "info"
	ActionHelp           = "help"
	ActionQuit           = "quit"
	ActionRescan         = "rescan"
)

// Actions returns every action name in display order.
func Actions() []string {
	return []string{
		ActionNext, ActionPrevious, ActionAdvance, ActionBack,
		ActionFirst, ActionLast, ActionGoto,
		ActionOrderNone, ActionOrderName, ActionOrderNameDesc,
		ActionOrderMtime, ActionOrderMtimeDesc, ActionOrderRandom,
		ActionSlideshow, ActionInfo, ActionHelp, ActionQuit, ActionRescan,
	}
}

// Watch strategies.
const (
	StrategyRescan      = "rescan"
	StrategyIncremental = "incremental"
)

// Binding maps keys to an action. Keys alone bind a chord sequence, a
// pattern alone binds a regular expression over the typed text, and both
// bind a pattern followed by the keys.
type Binding struct {
	Action  string `yaml:"action"`
	Keys    string `yaml:"keys,omitempty"`
	Pattern string `yaml:"pattern,omitempty"`
}

// Kind reports which matcher the binding becomes.
func (b Binding) Kind() command.Kind {
	switch {
	case b.Pattern != "" && b.Keys != "":
		return command.KindCombined
	case b.Pattern != "":
		return command.KindText
	default:
		return command.KindChords
	}
}

// CommandSpec binds keys to an external command line. "{}" in Run is
// replaced by the path of the current image.
type CommandSpec struct {
	Keys        string `yaml:"keys"`
	Run         string `yaml:"run"`
	Description string `yaml:"description,omitempty"`
}

// Config represents the application configuration structure.
type Config struct {
	Viewer struct {
		Order             string        `yaml:"order"`              // Initial order mode
		SlideshowInterval time.Duration `yaml:"slideshow_interval"` // Delay between slideshow steps
	} `yaml:"viewer"`
	Images struct {
		Patterns     []string `yaml:"patterns"`      // File name globs treated as images
		SniffContent bool     `yaml:"sniff_content"` // Detect images with unknown extensions by content
	} `yaml:"images"`
	Watch struct {
		Enabled       bool          `yaml:"enabled"`        // Follow changes to the directory
		Strategy      string        `yaml:"strategy"`       // rescan or incremental
		Debounce      time.Duration `yaml:"debounce"`       // Quiet period before a batch is applied
		FollowCurrent bool          `yaml:"follow_current"` // Redraw when the current image changes
	} `yaml:"watch"`
	Bindings []Binding     `yaml:"bindings"`
	Commands []CommandSpec `yaml:"commands"`
	Logging  struct {
		Level string `yaml:"level"` // debug, info, warn or error
		JSON  bool   `yaml:"json"`  // Emit JSON lines
		File  string `yaml:"file"`  // Log file; the viewer logs nowhere without one
	} `yaml:"logging"`
	Theme struct {
		Name     string `yaml:"name"`
		Primary  string `yaml:"primary"`
		Success  string `yaml:"success"`
		Warning  string `yaml:"warning"`
		Error    string `yaml:"error"`
		Info     string `yaml:"info"`
		Emphasis string `yaml:"emphasis"`
		Border   string `yaml:"border"`
	} `yaml:"theme"`
}

// DefaultPath returns ~/.config/sciv/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sciv", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.fillTheme()
			return cfg, nil
		}
		return nil, errors.NewConfigError("error reading config file", path, errors.ConfigNotFound, err)
	}

	// Decoding over the defaults keeps unset fields. Lists that are present
	// replace the default list.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
	}
	cfg.fillTheme()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// DefaultBindings returns the stock key map.
func DefaultBindings() []Binding {
	return []Binding{
		{Action: ActionNext, Keys: "space"},
		{Action: ActionPrevious, Keys: "S-space"},
		{Action: ActionPrevious, Keys: "backspace"},
		{Action: ActionAdvance, Pattern: `(\d+) `},
		{Action: ActionBack, Pattern: `(\d+)`, Keys: "S-space"},
		{Action: ActionBack, Pattern: `(\d+)`, Keys: "backspace"},
		{Action: ActionFirst, Keys: "g g"},
		{Action: ActionLast, Keys: "G"},
		{Action: ActionGoto, Pattern: `(\d+)G`},
		{Action: ActionOrderName, Keys: "o n"},
		{Action: ActionOrderNameDesc, Keys: "o N"},
		{Action: ActionOrderMtime, Keys: "o m"},
		{Action: ActionOrderMtimeDesc, Keys: "o M"},
		{Action: ActionOrderRandom, Keys: "o r"},
		{Action: ActionOrderNone, Keys: "o i"},
		{Action: ActionSlideshow, Keys: "s"},
		{Action: ActionInfo, Keys: "i"},
		{Action: ActionHelp, Keys: "?"},
		{Action: ActionQuit, Keys: "q"},
		{Action: ActionRescan, Keys: "R"},
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Viewer.Order = files.Insertion.String()
	cfg.Viewer.SlideshowInterval = 2 * time.Second

	cfg.Images.Patterns = append([]string(nil), files.DefaultPatterns...)
	cfg.Images.SniffContent = false

	cfg.Watch.Enabled = true
	cfg.Watch.Strategy = StrategyRescan
	cfg.Watch.Debounce = 100 * time.Millisecond
	cfg.Watch.FollowCurrent = true

	cfg.Bindings = DefaultBindings()
	cfg.Commands = []CommandSpec{}

	cfg.Logging.Level = "info"

	// colors are filled from the named theme once the file is read
	cfg.Theme.Name = "default"
	return cfg
}

// New returns a configuration with default values.
func New() *Config {
	cfg := defaultConfig()
	cfg.fillTheme()
	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewFileError("failed to create config directory", dir, errors.FileOperationFailed, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewFileError("failed to write config file", path, errors.FileOperationFailed, err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	if _, err := files.ParseOrderMode(c.Viewer.Order); err != nil {
		return errors.NewConfigError("invalid order mode", "viewer.order", errors.InvalidConfig, err)
	}
	if c.Viewer.SlideshowInterval <= 0 {
		return errors.NewConfigError("slideshow interval must be positive", "viewer.slideshow_interval", errors.InvalidConfig, nil)
	}

	if len(c.Images.Patterns) == 0 {
		return errors.NewConfigError("at least one image pattern is required", "images.patterns", errors.InvalidConfig, nil)
	}
	if _, err := files.NewImageMatcher(c.Images.Patterns, c.Images.SniffContent); err != nil {
		return errors.NewConfigError("invalid image pattern", "images.patterns", errors.InvalidConfig, err)
	}

	switch c.Watch.Strategy {
	case StrategyRescan, StrategyIncremental:
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown watch strategy %q", c.Watch.Strategy), "watch.strategy", errors.InvalidConfig, nil)
	}
	if c.Watch.Debounce < 0 {
		return errors.NewConfigError("debounce must be >= 0", "watch.debounce", errors.InvalidConfig, nil)
	}

	known := make(map[string]bool)
	for _, a := range Actions() {
		known[a] = true
	}
	for i, b := range c.Bindings {
		param := fmt.Sprintf("bindings[%d]", i)
		if b.Action == "" {
			return errors.NewConfigError("action is required", param, errors.InvalidConfig, nil)
		}
		if !known[b.Action] {
			return errors.NewConfigError("invalid binding", param, errors.InvalidConfig,
				errors.NewBindingError("unknown action", b.Action, errors.UnknownAction, nil))
		}
		if b.Keys == "" && b.Pattern == "" {
			return errors.NewConfigError("keys or pattern is required", param, errors.InvalidConfig, nil)
		}
		if err := validateKeys(b.Keys, b.Pattern); err != nil {
			return errors.NewConfigError("invalid binding", param, errors.InvalidConfig, err)
		}
	}

	for i, cmd := range c.Commands {
		param := fmt.Sprintf("commands[%d]", i)
		if cmd.Keys == "" {
			return errors.NewConfigError("keys are required", param, errors.InvalidConfig, nil)
		}
		if cmd.Run == "" {
			return errors.NewConfigError("run is required", param, errors.InvalidConfig, nil)
		}
		if _, err := command.ParseCommand(cmd.Keys); err != nil {
			return errors.NewConfigError("invalid command keys", param, errors.InvalidConfig, err)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown log level %q", c.Logging.Level), "logging.level", errors.InvalidConfig, nil)
	}

	return nil
}

func validateKeys(keys, pattern string) error {
	if keys != "" {
		if _, err := command.ParseCommand(keys); err != nil {
			return err
		}
	}
	if pattern != "" {
		if _, err := command.CompilePattern(pattern); err != nil {
			return err
		}
	}
	return nil
}

// GetTheme returns a predefined theme configuration by name.
// If the theme doesn't exist, returns the default theme.
func GetTheme(name string) map[string]string {
	themes := map[string]map[string]string{
		"default": {
			"primary":  "213",
			"success":  "114",
			"warning":  "220",
			"error":    "196",
			"info":     "39",
			"emphasis": "212",
			"border":   "213",
		},
		"dark": {
			"primary":  "105",
			"success":  "78",
			"warning":  "214",
			"error":    "160",
			"info":     "33",
			"emphasis": "147",
			"border":   "105",
		},
		"light": {
			"primary":  "135",
			"success":  "150",
			"warning":  "222",
			"error":    "210",
			"info":     "117",
			"emphasis": "219",
			"border":   "135",
		},
		"monochrome": {
			"primary":  "245",
			"success":  "252",
			"warning":  "241",
			"error":    "232",
			"info":     "248",
			"emphasis": "255",
			"border":   "245",
		},
	}

	if theme, exists := themes[name]; exists {
		return theme
	}
	return themes["default"]
}

// ApplyTheme sets the theme colors from a named theme.
func (c *Config) ApplyTheme(name string) {
	theme := GetTheme(name)
	if _, ok := GetThemeNames()[name]; !ok {
		name = "default"
	}

	c.Theme.Name = name
	c.Theme.Primary = theme["primary"]
	c.Theme.Success = theme["success"]
	c.Theme.Warning = theme["warning"]
	c.Theme.Error = theme["error"]
	c.Theme.Info = theme["info"]
	c.Theme.Emphasis = theme["emphasis"]
	c.Theme.Border = theme["border"]
}

// fillTheme sets every color the file left empty from the named theme.
func (c *Config) fillTheme() {
	theme := GetTheme(c.Theme.Name)
	fill := func(field *string, key string) {
		if *field == "" {
			*field = theme[key]
		}
	}
	fill(&c.Theme.Primary, "primary")
	fill(&c.Theme.Success, "success")
	fill(&c.Theme.Warning, "warning")
	fill(&c.Theme.Error, "error")
	fill(&c.Theme.Info, "info")
	fill(&c.Theme.Emphasis, "emphasis")
	fill(&c.Theme.Border, "border")
}

// GetThemeNames returns the set of available theme names.
func GetThemeNames() map[string]bool {
	names := make(map[string]bool)
	for _, n := range ListThemes() {
		names[n] = true
	}
	return names
}

// ListThemes returns a list of available theme names.
func ListThemes() []string {
	return []string{"default", "dark", "light", "monochrome"}
}
