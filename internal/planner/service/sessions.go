package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"floorplan-engine/internal/planner/editor"
	"floorplan-engine/internal/planner/repository"
)

// ============================================================
// Session Manager
// ============================================================

// Session — открытый в памяти план. Все правки идут через Do под мьютексом:
// у плана ровно один мутатор в каждый момент времени.
type Session struct {
	mu     sync.Mutex
	planID string
	editor *editor.Editor
}

func (s *Session) PlanID() string {
	return s.planID
}

func (s *Session) Do(fn func(e *editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

type SessionManager struct {
	mu       sync.Mutex
	repo     *repository.Repository
	opts     editor.Options
	sessions map[string]*Session // planID -> session
}

func NewSessionManager(repo *repository.Repository, opts editor.Options) *SessionManager {
	return &SessionManager{
		repo:     repo,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create заводит пустой план и сразу открывает его.
func (m *SessionManager) Create(ctx context.Context, name string) (*repository.Plan, *Session, error) {
	plan, err := m.repo.Create(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{planID: plan.ID, editor: editor.New(m.opts)}
	m.sessions[plan.ID] = s
	log.Printf("[PLANS] created plan %s (%q)", plan.ID, name)
	return plan, s, nil
}

// Open возвращает сессию плана, при первом обращении поднимая его из базы.
func (m *SessionManager) Open(ctx context.Context, planID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[planID]; ok {
		return s, nil
	}

	plan, err := m.repo.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	e := editor.New(m.opts)
	if plan.Document != "" {
		if err := e.Load(ctx, m.repo.PlanStore(planID)); err != nil {
			return nil, fmt.Errorf("open plan %s: %w", planID, err)
		}
	}

	s := &Session{planID: planID, editor: e}
	m.sessions[planID] = s
	log.Printf("[PLANS] opened plan %s", planID)
	return s, nil
}

// Store — адаптер сохранения для сессии.
func (m *SessionManager) Store(planID string) editor.Persistence {
	return m.repo.PlanStore(planID)
}

// Close выгружает план из памяти; несохранённые правки теряются.
func (m *SessionManager) Close(planID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[planID]; !ok {
		return false
	}
	delete(m.sessions, planID)
	return true
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
