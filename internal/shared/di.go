package shared

import "context"

// Starter is implemented by provider instances that need boot-time
// initialization beyond their constructor. Called by the container in
// dependency order during Start.
type Starter interface {
	Start(ctx context.Context) error
}

// Stopper is implemented by provider instances that hold resources.
// Called in reverse dependency order during Stop.
type Stopper interface {
	Stop(ctx context.Context) error
}

// HealthChecker is implemented by provider instances that can report
// their own health. Aggregated by the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}
