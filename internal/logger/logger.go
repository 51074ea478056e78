package logger

import (
	"go.uber.org/zap"
)

// New builds a zap logger appropriate for the given environment.
// "development" gets the human-readable console encoder, everything else
// gets production JSON output.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNamed builds an environment-appropriate logger scoped to a service name.
func NewNamed(env, service string) (*zap.Logger, error) {
	l, err := New(env)
	if err != nil {
		return nil, err
	}
	return l.Named(service), nil
}
