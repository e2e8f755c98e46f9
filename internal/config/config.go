// Package config loads daemon settings from flags, an optional YAML file,
// the environment and a .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "VOXD"

var (
	Inputs    = []string{"mic", "script", "bus"}
	Outputs   = []string{"espeak", "bus", "log"}
	LogLevels = []string{"debug", "info", "warn", "error"}
)

type Config struct {
	LogLevel    string
	Socket      string
	MetricsAddr string

	Proxy       string
	HTTPTimeout time.Duration

	Input        string
	Output       string
	Script       []string
	BusURL       string
	BusName      string
	WhisperModel string
	Language     string
	Voice        string
	VoiceRate    int

	WakePhrases []string
	Greeting    string
	FollowUp    bool
	Duck        bool
	ChimePath   string
	DesktopNote bool

	LLMKey      string
	LLMBaseURL  string
	LLMModel    string
	TierTimeout time.Duration
	CacheSize   int
	CacheTTL    time.Duration

	NewsKey      string
	CalendarPath string
	Maildir      string
	Browser      string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// Secrets are also read from their conventional unprefixed names.
var secretEnv = map[string][]string{
	"llm-key":       {"VOXD_LLM_KEY", "MISTRAL_API_KEY"},
	"news-key":      {"VOXD_NEWS_KEY", "NEWSAPI_KEY"},
	"smtp-user":     {"VOXD_SMTP_USER", "SMTP_USERNAME"},
	"smtp-password": {"VOXD_SMTP_PASSWORD", "SMTP_PASSWORD"},
}

func flags() *cli.FlagSet {
	fs := cli.NewFlagSet("voxd", cli.ContinueOnError)

	fs.StringP("config", "c", "", "YAML config file")
	fs.StringP("env", "e", ".env", "Env file path")
	fs.StringP("log", "l", "info", "Log level")
	fs.String("socket", "/tmp/voxd.sock", "Control socket path")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")

	fs.StringP("proxy", "p", "", "SOCKS5 proxy address for outbound HTTP")
	fs.Duration("http-timeout", 20*time.Second, "Outbound HTTP timeout")

	fs.StringP("input", "i", "mic", "Speech input: mic, script or bus")
	fs.StringP("output", "o", "espeak", "Speech output: espeak, bus or log")
	fs.StringSlice("script", nil, "Files replayed by the script input (.txt lines or audio)")
	fs.String("bus-url", "ws://localhost:8092/ws", "Websocket bus URL")
	fs.String("bus-name", "voxd", "Name on the bus")
	fs.String("whisper-model", "models/ggml-base.en.bin", "whisper.cpp model path")
	fs.String("language", "en", "Transcription language")
	fs.String("voice", "en", "espeak voice")
	fs.Int("voice-rate", 0, "espeak words per minute")

	fs.StringSlice("wake", []string{"hey assistant", "ok assistant", "hello assistant"}, "Wake phrases")
	fs.String("greeting", "Hello! I'm your voice assistant. Say hey assistant when you need me.", "Spoken at startup")
	fs.Bool("follow-up", false, "Ask \"Anything else?\" after each command")
	fs.Bool("duck", true, "Lower other audio while active")
	fs.String("chime", "", "Sound played when a timer finishes")
	fs.Bool("desktop-notify", true, "Desktop notification when a timer finishes")

	fs.String("llm-key", "", "Chat completion API key")
	fs.String("llm-base-url", "https://api.mistral.ai/v1/", "Chat completion API base URL")
	fs.String("llm-model", "mistral-small-latest", "Chat completion model")
	fs.Duration("tier-timeout", 15*time.Second, "Timeout for each answering tier")
	fs.Int("cache-size", 128, "Answer cache entries")
	fs.Duration("cache-ttl", 30*time.Minute, "Answer cache lifetime")

	fs.String("news-key", "", "NewsAPI key")
	fs.String("calendar", "", "iCalendar file events are written to")
	fs.String("maildir", "", "Maildir read for new mail")
	fs.String("browser", "xdg-open", "Command that opens media URLs")

	fs.String("smtp-host", "", "SMTP submission host")
	fs.Int("smtp-port", 587, "SMTP submission port")
	fs.String("smtp-user", "", "SMTP username")
	fs.String("smtp-password", "", "SMTP password")
	fs.String("smtp-from", "", "From address, defaults to the username")

	return fs
}

func Load(args []string) (*Config, error) {
	fs := flags()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := fs.GetString("env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	for key, names := range secretEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	c := &Config{
		LogLevel:    v.GetString("log"),
		Socket:      v.GetString("socket"),
		MetricsAddr: v.GetString("metrics-addr"),

		Proxy:       v.GetString("proxy"),
		HTTPTimeout: v.GetDuration("http-timeout"),

		Input:        v.GetString("input"),
		Output:       v.GetString("output"),
		Script:       stringList(v, "script"),
		BusURL:       v.GetString("bus-url"),
		BusName:      v.GetString("bus-name"),
		WhisperModel: v.GetString("whisper-model"),
		Language:     v.GetString("language"),
		Voice:        v.GetString("voice"),
		VoiceRate:    v.GetInt("voice-rate"),

		WakePhrases: stringList(v, "wake"),
		Greeting:    v.GetString("greeting"),
		FollowUp:    v.GetBool("follow-up"),
		Duck:        v.GetBool("duck"),
		ChimePath:   v.GetString("chime"),
		DesktopNote: v.GetBool("desktop-notify"),

		LLMKey:      v.GetString("llm-key"),
		LLMBaseURL:  v.GetString("llm-base-url"),
		LLMModel:    v.GetString("llm-model"),
		TierTimeout: v.GetDuration("tier-timeout"),
		CacheSize:   v.GetInt("cache-size"),
		CacheTTL:    v.GetDuration("cache-ttl"),

		NewsKey:      v.GetString("news-key"),
		CalendarPath: v.GetString("calendar"),
		Maildir:      v.GetString("maildir"),
		Browser:      v.GetString("browser"),

		SMTPHost:     v.GetString("smtp-host"),
		SMTPPort:     v.GetInt("smtp-port"),
		SMTPUser:     v.GetString("smtp-user"),
		SMTPPassword: v.GetString("smtp-password"),
		SMTPFrom:     v.GetString("smtp-from"),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(LogLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log level %q not one of %v", c.LogLevel, LogLevels))
	}
	if !slices.Contains(Inputs, c.Input) {
		errs = append(errs, fmt.Errorf("input %q not one of %v", c.Input, Inputs))
	}
	if !slices.Contains(Outputs, c.Output) {
		errs = append(errs, fmt.Errorf("output %q not one of %v", c.Output, Outputs))
	}
	if c.Input == "script" && len(c.Script) == 0 {
		errs = append(errs, errors.New("script input needs at least one --script file"))
	}
	if (c.Input == "bus" || c.Output == "bus") && c.BusURL == "" {
		errs = append(errs, errors.New("bus input or output needs --bus-url"))
	}
	if c.Input == "mic" && c.WhisperModel == "" {
		errs = append(errs, errors.New("mic input needs --whisper-model"))
	}
	if len(c.WakePhrases) == 0 {
		errs = append(errs, errors.New("at least one wake phrase is required"))
	}
	if c.SMTPHost != "" && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		errs = append(errs, fmt.Errorf("smtp port %d out of range", c.SMTPPort))
	}

	return errors.Join(errs...)
}

// NeedsWhisper reports whether any input path transcribes audio locally.
func (c *Config) NeedsWhisper() bool {
	if c.Input == "mic" {
		return true
	}
	if c.Input != "script" {
		return false
	}
	return slices.ContainsFunc(c.Script, func(p string) bool {
		return !strings.HasSuffix(strings.ToLower(p), ".txt")
	})
}

// stringList reads a list that may come from the environment as one
// comma-separated string. Wake phrases contain spaces, so viper's own
// whitespace splitting does not work.
func stringList(v *viper.Viper, key string) []string {
	s, ok := v.Get(key).(string)
	if !ok {
		return v.GetStringSlice(key)
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
