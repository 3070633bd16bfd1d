package domain

import "context"

// Store is the persistence backend behind the services. An implementation
// owns its schema and migrations and hands out repositories bound to its
// connection.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error
	Users() UserRepository
	Products() ProductRepository
}
