package ports

import "context"

// HealthChecker is a backing service reported under "dependencies" on
// GET /health. A failing Ping degrades the status but never the HTTP code.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
