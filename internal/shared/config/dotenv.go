package config

import (
	"os"

	"github.com/spf13/viper"
)

// loadEnvFiles merges KEY=VALUE files into v if they exist.
// Missing or malformed files are skipped; the environment still wins.
func loadEnvFiles(v *viper.Viper, paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fileV := viper.New()
		fileV.SetConfigFile(path)
		fileV.SetConfigType("env")
		if err := fileV.ReadInConfig(); err != nil {
			continue
		}
		for _, key := range fileV.AllKeys() {
			v.SetDefault(key, fileV.Get(key))
		}
	}
}
