// Package provider defines the translation provider interface and implementations.
package provider

import "github.com/ZaguanLabs/lexicache"

// Provider is the interface for remote translation backends.
// This is an alias to the main package interface for convenience.
type Provider = lexicache.Provider

// FetchRequest is an alias to the main package type.
type FetchRequest = lexicache.FetchRequest
