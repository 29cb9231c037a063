// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NewLogger creates a logger configured by cfg.
func NewLogger(cfg LogConfiguration) (*logrus.Logger, error) {
	log := logrus.New()
	if err := configureLogger(log, cfg); err != nil {
		return nil, err
	}
	return log, nil
}

// ConfigureStandardLogger applies cfg to the logrus standard logger,
// used by the binaries.
func ConfigureStandardLogger(cfg LogConfiguration) error {
	return configureLogger(logrus.StandardLogger(), cfg)
}

func configureLogger(log *logrus.Logger, cfg LogConfiguration) error {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(ErrConfiguration, "log level %q", cfg.Level)
	}

	var formatter logrus.Formatter
	switch cfg.Format {
	case "", "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return errors.Wrapf(ErrConfiguration, "log format %q", cfg.Format)
	}

	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	log.SetFormatter(formatter)
	return nil
}
