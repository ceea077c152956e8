package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/coffee-research/coffee/internal/services"
)

type memoryStore struct {
	mu           sync.RWMutex
	surveys      map[string]*services.StoredSurvey
	submissions  map[string][]*services.StoredSubmission
	usersByEmail map[string]*services.User
}

// NewMemoryStore returns a Store that keeps everything in process memory.
func NewMemoryStore() Store {
	return &memoryStore{
		surveys:      map[string]*services.StoredSurvey{},
		submissions:  map[string][]*services.StoredSubmission{},
		usersByEmail: map[string]*services.User{},
	}
}

func (s *memoryStore) AddSurvey(ss *services.StoredSurvey) error {
	if ss == nil {
		return services.NewInvalidError("survey required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ss
	s.surveys[ss.ID] = &cp
	return nil
}

func (s *memoryStore) GetSurvey(id string) (*services.StoredSurvey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ss, ok := s.surveys[id]
	if !ok {
		return nil, nil
	}
	cp := *ss
	return &cp, nil
}

func (s *memoryStore) ListSurveysByOwner(ownerID string) ([]*services.StoredSurvey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.StoredSurvey, 0)
	for _, ss := range s.surveys {
		if ss.OwnerID == ownerID {
			cp := *ss
			out = append(out, &cp)
		}
	}
	// same order as the SQLite store
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryStore) AddSubmission(sub *services.StoredSubmission) error {
	if sub == nil {
		return services.NewInvalidError("submission required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sub.SurveyID]; !ok {
		return services.NewNotFoundError("survey not found")
	}
	if sub.Exclusive {
		for _, prev := range s.submissions[sub.SurveyID] {
			if prev.Exclusive && prev.Submission.Identifier == sub.Submission.Identifier {
				return services.NewConflictError("respondent already submitted")
			}
		}
	}
	cp := *sub
	s.submissions[sub.SurveyID] = append(s.submissions[sub.SurveyID], &cp)
	return nil
}

func (s *memoryStore) HasSubmission(surveyID, respondent string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions[surveyID] {
		if sub.Submission.Identifier == respondent {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) ListSubmissions(surveyID string) ([]*services.StoredSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.StoredSubmission, 0, len(s.submissions[surveyID]))
	for _, sub := range s.submissions[surveyID] {
		cp := *sub
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memoryStore) AddUser(u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	key := strings.ToLower(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[key]; ok {
		return services.NewConflictError("email exists")
	}
	cp := *u
	s.usersByEmail[key] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}
