package main

import (
	"context"

	"github.com/gwillem/urdfcheck/pkg/sim"
)

// demo loads the validated model into an engine and animates it until the user
// or a signal stops it.
type demo interface {
	Title() string
	Run(ctx context.Context, a *app) error
}

var demos = map[sim.Mode]demo{
	sim.ModeRigidBody: rigidDemo{},
	sim.ModeViewer:    viewerDemo{},
}
