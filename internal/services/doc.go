// Package services provides the shared error taxonomy and context annotations
// used across the translation pipeline and its service clients.
package services
