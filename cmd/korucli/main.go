// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx/vkr"
)

var (
	debug  = flag.Bool("debug", false, "Enable validation layers")
	indent = flag.Bool("indent", true, "Indent the JSON report")
)

func main() {
	flag.Parse()

	configuration, err := core.LoadConfiguration()
	if err != nil {
		log.Fatal(err)
	}
	if err := core.ConfigureStandardLogger(configuration.Log); err != nil {
		log.Fatal(err)
	}

	cfg := configuration.Instance
	cfg.DebugMode = cfg.DebugMode || *debug
	instance, err := vkr.AcquireInstance(cfg, nil, log.StandardLogger())
	if err != nil {
		log.WithError(err).Fatal("Could not create instance")
	}
	defer vkr.ReleaseInstances()
	defer instance.Release()

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(instance.Get().PhysicalDevicesInfo()); err != nil {
		log.Fatal(err)
	}
}
