package bootstrap

import "context"

// Storage is whatever the previous stage produced: the *sqlx.DB (or nil)
// before services exist, the provided services afterwards.
type Storage = any

// Seeder loads reference data once storage is ready.
type Seeder interface {
	Seed(ctx context.Context, storage Storage) error
}

// SeederFunc adapts a function to Seeder.
type SeederFunc func(ctx context.Context, storage Storage) error

// Seed calls f.
func (f SeederFunc) Seed(ctx context.Context, storage Storage) error { return f(ctx, storage) }

// ServiceProvider builds the application services on top of storage.
type ServiceProvider interface {
	Provide(ctx context.Context, cfg any, storage Storage) (any, error)
}

// TypedServiceProviderFunc lets a provider return its concrete services type.
type TypedServiceProviderFunc[T any] func(ctx context.Context, cfg any, storage Storage) (T, error)

// Provide calls f.
func (f TypedServiceProviderFunc[T]) Provide(ctx context.Context, cfg any, storage Storage) (any, error) {
	return f(ctx, cfg, storage)
}

// Modules groups the optional bootstrap stages.
type Modules struct {
	Seeders  []Seeder
	Services ServiceProvider
}
