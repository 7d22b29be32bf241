// Package domain holds the shop aggregates: members, items, orders with their
// lines and deliveries.
//
// Entities are plain structs. Mutators keep the aggregate invariants (stock
// never goes negative, an order is cancelled at most once) and never touch
// storage; persisting a mutation is always an explicit repository call made
// by the application layer.
package domain
