// Package domain contains the core business entities shared across the
// application: generation requests, product analysis data, artifacts, and the
// final workflow result. Domain types carry no dependencies on transport,
// storage, or provider packages.
package domain
