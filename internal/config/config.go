// Package config gathers the assistant's settings from flags, an optional
// .env file and the environment.
package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"navi/internal/ipc"
)

var LogLevels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

var Classifiers = []string{"lexicon", "openai"}

type Config struct {
	EnvFile  string
	LogLevel string

	// speech recognition
	Model         string
	Language      string
	Calibration   time.Duration
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
	Beep          string
	Replay        []string
	Text          bool

	// sentiment
	Classifier  string
	OpenAIModel string
	APIKey      string
	Proxy       string

	// speech output
	Name  string
	Voice string
	Rate  int
	Mute  bool
	Duck  bool

	Script string
	Bus    string
	Socket string
}

// Parse reads flags from args (without the program name), then loads the
// env file and fills values that only come from the environment.
func Parse(args []string) (*Config, error) {
	c := &Config{}

	fs := cli.NewFlagSet("navi", cli.ContinueOnError)
	fs.StringVarP(&c.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&c.LogLevel, "log", "l", "info", "Log level (debug, info, warn, error)")

	fs.StringVarP(&c.Model, "model", "m", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper ggml model")
	fs.StringVar(&c.Language, "language", "en", "Spoken language, or auto")
	fs.DurationVar(&c.Calibration, "calibrate", time.Second, "Ambient noise calibration before each turn")
	fs.DurationVar(&c.ListenTimeout, "listen-timeout", 10*time.Second, "How long to wait for speech to start")
	fs.DurationVar(&c.PhraseLimit, "phrase-limit", 15*time.Second, "Longest phrase recorded")
	fs.StringVar(&c.Beep, "beep", "", "Sound played before listening (.mp3 or .wav)")
	fs.StringSliceVar(&c.Replay, "replay", nil, "Audio files to use instead of the microphone")
	fs.BoolVar(&c.Text, "text", false, "Type instead of speaking")

	fs.StringVar(&c.Classifier, "classifier", "lexicon", "Sentiment scorer (lexicon, openai)")
	fs.StringVar(&c.OpenAIModel, "openai-model", "gpt-4o-mini", "Chat model for the openai scorer")
	fs.StringVarP(&c.Proxy, "proxy", "p", "", "SOCKS5 proxy for the OpenAI API")

	fs.StringVar(&c.Name, "name", "Rockman.EXE", "Speaker name shown on the console")
	fs.StringVar(&c.Voice, "voice", "en", "espeak-ng voice")
	fs.IntVar(&c.Rate, "rate", 150, "Speaking rate in words per minute")
	fs.BoolVar(&c.Mute, "mute", false, "Print replies without speaking them")
	fs.BoolVar(&c.Duck, "duck", false, "Lower other audio while speaking")

	fs.StringVar(&c.Script, "script", "", "YAML file overriding what the assistant says")
	fs.StringVar(&c.Bus, "bus", "", "Websocket hub that receives every turn")
	fs.StringVar(&c.Socket, "socket", ipc.DefaultSocketPath, "Control socket path; empty disables it")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(c.EnvFile); err != nil && fs.Changed("env") {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	c.APIKey = os.Getenv("OPENAI_API_KEY")
	if c.Bus == "" {
		c.Bus = os.Getenv("NAVI_BUS_URL")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if _, ok := LogLevels[c.LogLevel]; !ok {
		errs = append(errs, fmt.Errorf("log level %q is invalid; valid values: debug, info, warn, error", c.LogLevel))
	}
	if !slices.Contains(Classifiers, c.Classifier) {
		errs = append(errs, fmt.Errorf("classifier %q is invalid; valid values: %v", c.Classifier, Classifiers))
	}
	if c.Classifier == "openai" && c.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY not set; required by the openai classifier"))
	}
	if c.Calibration < 0 || c.ListenTimeout < 0 || c.PhraseLimit < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.Rate < 0 {
		errs = append(errs, fmt.Errorf("rate %d must not be negative", c.Rate))
	}
	if c.Text && len(c.Replay) > 0 {
		errs = append(errs, errors.New("--text and --replay are mutually exclusive"))
	}
	if c.Model == "" && !c.Text {
		errs = append(errs, errors.New("a whisper model is required unless --text is set"))
	}

	return errors.Join(errs...)
}

func (c *Config) Level() log.Level { return LogLevels[c.LogLevel] }
