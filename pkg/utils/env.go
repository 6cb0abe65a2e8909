package utils

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadEnv loads a .env file from path (if present) and primes viper so
// cobra flags and env vars resolve through the same lookup.
func LoadEnv(path string) {
	if err := godotenv.Load(path + "/.env"); err != nil {
		logrus.Debugf("[CONFIG] No .env file loaded from %s: %v", path, err)
	}
	viper.AutomaticEnv()
}
