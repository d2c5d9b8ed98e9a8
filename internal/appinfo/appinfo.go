// Package appinfo holds the fixed identity of the Eneo integration.
package appinfo

import "time"

const (
	AppID   = "integration_eneo"
	Version = "1.0.0"

	DefaultEneoURL        = "http://localhost:8000"
	DefaultRequestTimeout = 60 * time.Second
	HealthCheckTimeout    = 10 * time.Second
	UserAgent             = "Nextcloud Eneo Integration"

	// RoutePrefix is where the app mounts its HTTP surface.
	RoutePrefix = "/apps/" + AppID
)
