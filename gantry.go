// Package gantry is a module-oriented application runtime: declarative
// modules contribute providers and controllers, a dependency-injection
// container wires them together, and a metadata-driven router dispatches
// HTTP requests to controller methods.
//
// Minimal application:
//
//	app := gantry.New(gantry.DefaultAppConfig())
//
//	app.RegisterModule(gantry.Module{
//	    Name:        "ping",
//	    Controllers: []any{NewPingController},
//	})
//
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
package gantry

// Version is the framework version.
const Version = "0.3.0"
