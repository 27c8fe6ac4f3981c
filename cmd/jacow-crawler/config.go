// Copyright Ming Liu, 2025. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iuming/jacow-papers-crawler/pkg/types"
)

// fileCfg holds the configuration decoded from the viper-loaded config
// file. Fields absent from the file keep their zero values; the setting
// helpers below layer flag values and flag defaults on top.
var fileCfg types.CrawlerConfig

// decodeConfig maps the current viper state onto fileCfg.
func decodeConfig() error {
	return viper.Unmarshal(&fileCfg)
}

// stringSetting resolves one option: an explicitly set flag wins, then the
// config-file value, then the flag's default.
func stringSetting(flags *pflag.FlagSet, name, fromFile string) string {
	if flags.Changed(name) || fromFile == "" {
		v, _ := flags.GetString(name)
		return v
	}
	return fromFile
}

func durationSetting(flags *pflag.FlagSet, name string, fromFile time.Duration) time.Duration {
	if flags.Changed(name) || fromFile == 0 {
		v, _ := flags.GetDuration(name)
		return v
	}
	return fromFile
}

func intSetting(flags *pflag.FlagSet, name string, fromFile int) int {
	if flags.Changed(name) || fromFile == 0 {
		v, _ := flags.GetInt(name)
		return v
	}
	return fromFile
}

func int64Setting(flags *pflag.FlagSet, name string, fromFile int64) int64 {
	if flags.Changed(name) || fromFile == 0 {
		v, _ := flags.GetInt64(name)
		return v
	}
	return fromFile
}
