// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/utility/kar"
)

//go:generate glslangValidator -V shaders/cube.vert -o shaders/cube.vert.spv
//go:generate glslangValidator -V shaders/cube.frag -o shaders/cube.frag.spv

// shaderSource reads compiled shader byte code by file name.
type shaderSource interface {
	io.Closer
	ReadAll(name string) ([]byte, error)
}

type boxSource struct {
	box packr.Box
}

func (b boxSource) ReadAll(name string) ([]byte, error) {
	return b.box.Find(name)
}

func (boxSource) Close() error { return nil }

// dirSource reads the compiled shaders found in a directory on disk.
type dirSource map[string]string

func newDirSource(dir string) (dirSource, error) {
	files, err := core.LoadShaderFiles(dir)
	if err != nil {
		return nil, err
	}
	source := make(dirSource, len(files))
	for _, f := range files {
		source[filepath.Base(f.Path)] = f.Path
	}
	return source, nil
}

func (d dirSource) ReadAll(name string) ([]byte, error) {
	path, ok := d[name]
	if !ok {
		return nil, errors.Errorf("shader %s not found", name)
	}
	return os.ReadFile(path)
}

func (dirSource) Close() error { return nil }

// openShaders prefers the configured kar pack, then the configured shader
// directory, and falls back to the shaders packed into the binary.
func openShaders(cfg core.RendererConfiguration) (shaderSource, error) {
	if cfg.ShaderPack != "" {
		ar, err := kar.OpenFile(cfg.ShaderPack)
		if err != nil {
			return nil, errors.Wrap(err, "open shader pack")
		}
		log.WithField("pack", cfg.ShaderPack).WithField("files", len(ar.Names())).Info("Using shader pack")
		return ar, nil
	}

	if info, err := os.Stat(cfg.ShaderDirectory); err == nil && info.IsDir() {
		source, err := newDirSource(cfg.ShaderDirectory)
		if err != nil {
			return nil, errors.Wrap(err, "read shader directory")
		}
		if len(source) > 0 {
			log.WithField("dir", cfg.ShaderDirectory).WithField("files", len(source)).Info("Using shader directory")
			return source, nil
		}
	}

	box := packr.NewBox("./shaders")
	log.WithField("files", len(box.List())).Info("Using packed shaders")
	return boxSource{box: box}, nil
}
