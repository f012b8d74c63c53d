package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlag binds a flag to a viper key. Flags take precedence over the
// environment and the config file only when set explicitly.
func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	_ = v.BindPFlag(key, flag) //nolint:errcheck // only fails for a nil flag
}
