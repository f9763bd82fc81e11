package config

import (
	"go.uber.org/zap"
)

// NewLogger builds the process-wide zap logger. Development config for
// local envs, production JSON encoding otherwise.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
