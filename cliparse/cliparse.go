package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/danielhkuo/greenery-survey/store"
	"github.com/danielhkuo/greenery-survey/survey"
)

var ErrMissingManifest = errors.New("image manifest required (use -manifest or MANIFEST_PATH env)")

type Config struct {
	Port         int
	Store        store.Config
	SessionSalt  string
	IPSalt       string
	AdminKey     string
	ManifestPath string
	Shuffle      bool
	Preload      int

	// Survey settings
	Order       string
	Lexicon     string
	Revisit     string
	MinDwell    time.Duration
	ArmWindow   time.Duration
	MaxImages   int
	SaveTimeout time.Duration
	Version     string
}

// ParseFlags validates flags and falls back to environment variables for
// anything not given on the command line
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var storeType string

	fs := flag.NewFlagSet("greenery-survey", flag.ContinueOnError)

	// Network and storage config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&storeType, "t", "", "Store type (postgres, sqlite, object or memory)")
	fs.StringVar(&cfg.Store.DatabaseURL, "d", "", "Database URL, or file path for sqlite")
	fs.StringVar(&cfg.Store.Object.Endpoint, "s3-endpoint", "", "Object store endpoint (host:port)")
	fs.StringVar(&cfg.Store.Object.Bucket, "s3-bucket", "", "Object store bucket")
	fs.StringVar(&cfg.Store.Object.Prefix, "s3-prefix", "", "Object key prefix")
	fs.StringVar(&cfg.Store.Object.Region, "s3-region", "", "Object store region")
	fs.BoolVar(&cfg.Store.Object.UseSSL, "s3-ssl", false, "Use TLS for the object store")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSalt, "session-salt", "", "Session token salt (prefer env)")
	fs.StringVar(&cfg.IPSalt, "ip-salt", "", "IP hash salt (prefer env)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Key for the results endpoint (prefer env)")

	// Survey
	fs.StringVar(&cfg.ManifestPath, "manifest", "", "Image manifest (YAML)")
	fs.BoolVar(&cfg.Shuffle, "shuffle", false, "Shuffle images per session")
	fs.IntVar(&cfg.Preload, "preload", -1, "Upcoming images to announce for preloading")
	fs.StringVar(&cfg.Order, "order", "", "Rating order (GP or PG)")
	fs.StringVar(&cfg.Lexicon, "lexicon", "", "Lexicon variant (GREEN or VEG)")
	fs.StringVar(&cfg.Revisit, "revisit", "", "Revisit policy (reopen or lock)")
	fs.DurationVar(&cfg.MinDwell, "min-dwell", 0, "Minimum dwell per image")
	fs.DurationVar(&cfg.ArmWindow, "arm-window", 0, "Window for entering 10 after 1")
	fs.IntVar(&cfg.MaxImages, "max-images", -1, "Completed images per session (0 = no cap)")
	fs.DurationVar(&cfg.SaveTimeout, "save-timeout", 0, "Timeout for saving a payload")
	fs.StringVar(&cfg.Version, "survey-version", "", "Survey version recorded in metadata")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if storeType == "" {
		storeType = envOr("STORE_TYPE", string(store.TypeSQLite))
	}
	t, err := store.ParseType(storeType)
	if err != nil {
		return Config{}, err
	}
	cfg.Store.Type = t

	if cfg.Store.DatabaseURL == "" {
		cfg.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	switch cfg.Store.Type {
	case store.TypePostgres:
		if cfg.Store.DatabaseURL == "" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	case store.TypeSQLite:
		if cfg.Store.DatabaseURL == "" {
			cfg.Store.DatabaseURL = "data/survey.db"
		}
	case store.TypeObject:
		if err := objectFromEnv(&cfg.Store.Object, set); err != nil {
			return Config{}, err
		}
	}

	// Secrets - MUST be provided
	if cfg.SessionSalt == "" {
		cfg.SessionSalt = os.Getenv("SESSION_SALT")
	}
	if cfg.SessionSalt == "" {
		return Config{}, errors.New("SESSION_SALT required")
	}
	if cfg.IPSalt == "" {
		cfg.IPSalt = os.Getenv("IP_HASH_SALT")
	}
	if cfg.IPSalt == "" {
		return Config{}, errors.New("IP_HASH_SALT required")
	}

	// Optional: without it the results endpoint rejects every request
	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}

	if cfg.ManifestPath == "" {
		cfg.ManifestPath = os.Getenv("MANIFEST_PATH")
	}
	if cfg.ManifestPath == "" {
		return Config{}, ErrMissingManifest
	}

	if !set["shuffle"] {
		if cfg.Shuffle, err = envBool("SHUFFLE", false); err != nil {
			return Config{}, err
		}
	}
	if cfg.Preload < 0 {
		if cfg.Preload, err = envInt("PRELOAD", 2); err != nil {
			return Config{}, err
		}
	}
	if cfg.MaxImages < 0 {
		if cfg.MaxImages, err = envInt("MAX_IMAGES", 100); err != nil {
			return Config{}, err
		}
	}
	if !set["min-dwell"] {
		if cfg.MinDwell, err = envDuration("MIN_DWELL", survey.DefaultMinDwell); err != nil {
			return Config{}, err
		}
	}
	if !set["arm-window"] {
		if cfg.ArmWindow, err = envDuration("ARM_WINDOW", survey.DefaultArmWindow); err != nil {
			return Config{}, err
		}
	}
	if !set["save-timeout"] {
		if cfg.SaveTimeout, err = envDuration("SAVE_TIMEOUT", 15*time.Second); err != nil {
			return Config{}, err
		}
	}
	if cfg.Order == "" {
		cfg.Order = envOr("RATING_ORDER", "GP")
	}
	if cfg.Lexicon == "" {
		cfg.Lexicon = envOr("LEXICON", string(survey.LexiconGreen))
	}
	if cfg.Revisit == "" {
		cfg.Revisit = envOr("REVISIT_POLICY", string(survey.RevisitReopen))
	}
	if cfg.Version == "" {
		cfg.Version = os.Getenv("SURVEY_VERSION")
	}

	// Catch bad survey settings at startup rather than on the first session
	if _, err := cfg.SurveyConfig(""); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SurveyConfig builds the per-session settings. A non-empty order overrides
// the configured one.
func (c Config) SurveyConfig(order string) (survey.Config, error) {
	if order == "" {
		order = c.Order
	}
	o, err := survey.ParseOrder(order)
	if err != nil {
		return survey.Config{}, err
	}
	lex, err := survey.ParseLexicon(c.Lexicon)
	if err != nil {
		return survey.Config{}, err
	}
	rev, err := survey.ParseRevisitPolicy(c.Revisit)
	if err != nil {
		return survey.Config{}, err
	}

	sc := survey.Config{
		Order:     o,
		MinDwell:  c.MinDwell,
		ArmWindow: c.ArmWindow,
		Cap:       c.MaxImages,
		Revisit:   rev,
		Lexicon:   lex,
		Version:   c.Version,
	}
	if err := sc.Validate(); err != nil {
		return survey.Config{}, err
	}
	return sc, nil
}

func objectFromEnv(o *store.ObjectConfig, set map[string]bool) error {
	if o.Endpoint == "" {
		o.Endpoint = os.Getenv("S3_ENDPOINT")
	}
	if o.Bucket == "" {
		o.Bucket = envOr("S3_BUCKET", "survey-responses")
	}
	if o.Prefix == "" {
		o.Prefix = os.Getenv("S3_PREFIX")
	}
	if o.Region == "" {
		o.Region = envOr("S3_REGION", "us-east-1")
	}
	// Keys only come from the environment
	o.AccessKey = os.Getenv("S3_ACCESS_KEY")
	o.SecretKey = os.Getenv("S3_SECRET_KEY")

	if !set["s3-ssl"] {
		ssl, err := envBool("S3_USE_SSL", false)
		if err != nil {
			return err
		}
		o.UseSSL = ssl
	}

	if err := o.Validate(); err != nil {
		return fmt.Errorf("object store: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s env variable", key)
	}
	return b, nil
}

// envDuration accepts Go durations ("2s") or plain milliseconds ("2000").
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}
