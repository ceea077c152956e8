package api

import "github.com/coffee-research/coffee/internal/services"

// Store is everything the HTTP layer persists. The SQLite store in
// internal/db implements it for production; memoryStore backs tests.
type Store interface {
	services.SurveyStore
	services.SubmissionStore
	services.AuthStore
}

var _ Store = (*memoryStore)(nil)
