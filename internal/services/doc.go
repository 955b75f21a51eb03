// Package services defines the shared error taxonomy and context annotation
// helpers used by the collaborator clients and stage handlers.
package services
