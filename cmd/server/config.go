package main

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mocknhire/mocknhire/internal/krypto"
	"github.com/mocknhire/mocknhire/internal/web"
)

// httpConfig is the configuration for the HTTP server.
type httpConfig struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	cookieKeys      []krypto.Key
	// viewDir renders templates from disk instead of the embedded
	// ones, mainly useful during development.
	viewDir string
	server  web.ServerConfig
}

// dbConfig is the configuration for the preferences database.
type dbConfig struct {
	file string
}

// identityConfig is the configuration for the identity service.
type identityConfig struct {
	apiURL           *url.URL
	apiKey           krypto.Secret
	timeout          time.Duration
	oauthProvider    string
	oauthRedirectURL string
}

// authConfig is the configuration for the auth controller.
type authConfig struct {
	signupRedirectDelay time.Duration
}

// config is the configuration for the server command.
type config struct {
	http     httpConfig
	db       dbConfig
	identity identityConfig
	auth     authConfig
}

// defaultConfig returns a config with sane default values. Required
// variables have no sane default and are checked in configFromEnv.
func defaultConfig() config {
	return config{
		http: httpConfig{
			addr:            ":8888",
			readTimeout:     time.Second * 5,
			writeTimeout:    time.Second * 10,
			idleTimeout:     time.Second * 120,
			shutdownTimeout: time.Second * 15,
			server: web.ServerConfig{
				SecureCookie: true,
			},
		},
		db: dbConfig{
			file: "mocknhire.db",
		},
		identity: identityConfig{
			timeout:       time.Second * 10,
			oauthProvider: "google",
		},
		auth: authConfig{
			signupRedirectDelay: time.Second,
		},
	}
}

// requiredKeys are environment variables without which the app cannot
// run.
var requiredKeys = []string{
	"HTTP_COOKIE_KEYS",
	"HTTP_CSRF_KEY",
	"IDENTITY_API_URL",
	"IDENTITY_API_KEY",
}

// envMap maps environment variable names to fields in the config struct.
var envMap = map[string]func(v string, c *config) error{
	"HTTP_ADDR": func(v string, c *config) error {
		c.http.addr = v
		return nil
	},
	"HTTP_READ_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.readTimeout, 0, math.MaxInt64)
	},
	"HTTP_WRITE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.writeTimeout, 0, math.MaxInt64)
	},
	"HTTP_IDLE_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.idleTimeout, 0, math.MaxInt64)
	},
	"HTTP_SHUTDOWN_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.http.shutdownTimeout, 0, math.MaxInt64)
	},
	"HTTP_COOKIE_KEYS": func(v string, c *config) error {
		return confKeys(v, &c.http.cookieKeys)
	},
	"HTTP_CSRF_KEY": func(v string, c *config) error {
		return confKey(v, &c.http.server.CSRFKey)
	},
	"HTTP_SECURE_COOKIE": func(v string, c *config) error {
		return confBool(v, &c.http.server.SecureCookie)
	},
	"HTTP_VIEW_DIR": func(v string, c *config) error {
		c.http.viewDir = v
		return nil
	},
	"DB_FILE": func(v string, c *config) error {
		if v == "" {
			return fmt.Errorf("database file may not be empty")
		}
		c.db.file = v
		return nil
	},
	"IDENTITY_API_URL": func(v string, c *config) error {
		return confURL(v, &c.identity.apiURL)
	},
	"IDENTITY_API_KEY": func(v string, c *config) error {
		c.identity.apiKey = krypto.NewSecret(v)
		return nil
	},
	"IDENTITY_TIMEOUT": func(v string, c *config) error {
		return confDuration(v, &c.identity.timeout, 0, math.MaxInt64)
	},
	"IDENTITY_OAUTH_PROVIDER": func(v string, c *config) error {
		c.identity.oauthProvider = v
		return nil
	},
	"IDENTITY_OAUTH_REDIRECT_URL": func(v string, c *config) error {
		c.identity.oauthRedirectURL = v
		return nil
	},
	"SIGNUP_REDIRECT_DELAY": func(v string, c *config) error {
		return confDuration(v, &c.auth.signupRedirectDelay, 0, time.Minute)
	},
}

// configFromEnv returns a config with values from the environment. It
// falls back to default values for any missing non-required variables.
//
// It does a best effort to validate provided values, so that mistakes
// are caught ASAP. However, there is no guarantee that the returned
// config is valid and will work.
func configFromEnv() (config, error) {
	c := defaultConfig()

	var errs []error

	for _, key := range requiredKeys {
		if _, ok := os.LookupEnv(key); !ok {
			errs = append(errs, fmt.Errorf("missing required env variable %s", key))
		}
	}

	for key, mf := range envMap {
		if val, ok := os.LookupEnv(key); ok {
			if err := mf(val, &c); err != nil {
				errs = append(errs, fmt.Errorf("invalid env variable %s: %w", key, err))
			}
		}
	}

	return c, errors.Join(errs...)
}

// confDuration attempts to parse v into tgt and checks if the result is in
// the provided range (inclusive).
func confDuration(v string, tgt *time.Duration, min, max time.Duration) error {
	dur, err := time.ParseDuration(v)
	if err != nil {
		return err
	}

	if dur < min || dur > max {
		return fmt.Errorf("duration %s not in range [%s, %s] (inclusive)", dur, min, max)
	}

	*tgt = dur

	return nil
}

// confKey attempts to parse v as a hex encoded key.
func confKey(v string, tgt *krypto.Key) error {
	key, err := krypto.ParseKey(v)
	if err != nil {
		return err
	}

	*tgt = key

	return nil
}

// confKeys attempts to parse v as a comma separated list of hex
// encoded keys.
func confKeys(v string, tgt *[]krypto.Key) error {
	parts := strings.Split(v, ",")
	keys := make([]krypto.Key, 0, len(parts))
	for _, part := range parts {
		key, err := krypto.ParseKey(part)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	*tgt = keys

	return nil
}

// confBool attempts to parse v as a bool.
func confBool(v string, tgt *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}

	*tgt = b

	return nil
}

// confURL attempts to parse v as an URL.
func confURL(v string, tgt **url.URL) error {
	u, err := url.Parse(v)
	if err != nil {
		return err
	}

	*tgt = u

	return nil
}
