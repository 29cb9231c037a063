// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

// shared is embedded by every unit. It keeps the session alive for as long
// as the unit is.
type shared struct {
	state *handle.Counted[*Session]
}

func newShared(state *handle.Counted[*Session]) (shared, error) {
	if !state.Alive() {
		return shared{}, gfx.ErrNullSharedState
	}
	return shared{state: state.Retain()}, nil
}

func (s *shared) session() *Session {
	return s.state.Get()
}

func (s *shared) storage() *handle.Storage {
	return s.state.Get().storage
}

func (s *shared) logger(unit string) logrus.FieldLogger {
	return s.state.Get().log.WithField("unit", unit)
}

// Release drops the unit's hold of the session.
func (s *shared) Release() {
	s.state.Release()
}
