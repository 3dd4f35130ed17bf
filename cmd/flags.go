package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlag makes key read the flag when it was set on the command line.
func bindFlag(f *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
