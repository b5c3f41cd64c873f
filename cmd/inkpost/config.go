package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/eringen/inkpost"
)

const (
	configFileName = "inkpost"
	configFileType = "yaml"
	envPrefix      = "INKPOST"

	cfgKeySiteName      = "site.name"
	cfgKeySiteURL       = "site.url"
	cfgKeySiteDesc      = "site.description"
	cfgKeySiteAuthor    = "site.author"
	cfgKeyAddr          = "addr"
	cfgKeyDatabase      = "database"
	cfgKeySessionSecret = "session_secret"
	cfgKeyCookieSecure  = "cookie_secure"
	cfgKeyPageSize      = "page_size"
	cfgKeyFeedSize      = "feed_size"
	cfgKeyTagCacheTTL   = "tag_cache_ttl"
	cfgKeyLoginMax      = "login_max"
	cfgKeyLoginWindow   = "login_window"
	cfgKeyStaticDir     = "static_dir"
)

// loadConfig reads the YAML config file, if any, and overlays INKPOST_*
// environment variables (site.url becomes INKPOST_SITE_URL). A missing
// default config file is not an error; a missing explicit one is.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeySiteName, "Blog")
	v.SetDefault(cfgKeySiteURL, "http://localhost:3000")
	v.SetDefault(cfgKeySiteDesc, "")
	v.SetDefault(cfgKeySiteAuthor, "")
	v.SetDefault(cfgKeyAddr, ":3000")
	v.SetDefault(cfgKeyDatabase, "data/blog.db")
	v.SetDefault(cfgKeySessionSecret, "")
	v.SetDefault(cfgKeyCookieSecure, false)
	v.SetDefault(cfgKeyPageSize, 5)
	v.SetDefault(cfgKeyFeedSize, 20)
	v.SetDefault(cfgKeyTagCacheTTL, 5*time.Minute)
	v.SetDefault(cfgKeyLoginMax, 5)
	v.SetDefault(cfgKeyLoginWindow, time.Minute)
	v.SetDefault(cfgKeyStaticDir, "public")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// siteConfig maps loaded settings onto inkpost.SiteConfig.
func siteConfig(v *viper.Viper) inkpost.SiteConfig {
	return inkpost.SiteConfig{
		Name:          v.GetString(cfgKeySiteName),
		URL:           v.GetString(cfgKeySiteURL),
		Description:   v.GetString(cfgKeySiteDesc),
		Author:        v.GetString(cfgKeySiteAuthor),
		Addr:          v.GetString(cfgKeyAddr),
		DatabasePath:  v.GetString(cfgKeyDatabase),
		SessionSecret: v.GetString(cfgKeySessionSecret),
		CookieSecure:  v.GetBool(cfgKeyCookieSecure),
		PageSize:      v.GetInt(cfgKeyPageSize),
		FeedSize:      v.GetInt(cfgKeyFeedSize),
		TagCacheTTL:   v.GetDuration(cfgKeyTagCacheTTL),
		LoginMax:      v.GetInt(cfgKeyLoginMax),
		LoginWindow:   v.GetDuration(cfgKeyLoginWindow),
	}
}
