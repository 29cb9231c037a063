// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package backend selects and constructs a rendering backend.
package backend

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/vkr"
)

// Options carry everything a backend needs at construction.
// Window may be nil for a headless backend.
type Options struct {
	Config core.Configuration
	Window gfx.Window
	Logger logrus.FieldLogger
}

// Make builds the backend of the given kind.
func Make(kind gfx.BackendKind, opts Options) (gfx.Backend, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	switch kind {
	case gfx.BackendVulkan:
		b, err := vkr.NewBackend(opts.Config, opts.Window, log.WithField("backend", kind.String()))
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.Wrapf(gfx.ErrUnsupportedBackendKind, "backend kind %d", int(kind))
	}
}
