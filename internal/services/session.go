package services

import (
	"fmt"
	"sync"
	"time"

	"AUTOFILL/internal/autofill"
	"AUTOFILL/internal/catalog"
	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"
	"AUTOFILL/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one user's in-progress submission.
type Session struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Store     *formstate.Store `json:"-"`

	lastSeen time.Time
}

// SessionManager owns the live sessions. All of them share one Library,
// so signatures and presets saved in one session are visible in the rest.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	library   *formstate.Library
	catalog   *catalog.Catalog
	roster    *roster.Provider
	adapters  *autofill.Registry
	validator *validation.Validator
	idleTTL   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

type SessionOption func(*SessionManager)

func WithIdleTTL(d time.Duration) SessionOption {
	return func(m *SessionManager) { m.idleTTL = d }
}

func WithSessionClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) { m.now = now }
}

func WithAdapters(r *autofill.Registry) SessionOption {
	return func(m *SessionManager) { m.adapters = r }
}

func WithValidator(v *validation.Validator) SessionOption {
	return func(m *SessionManager) { m.validator = v }
}

func NewSessionManager(lib *formstate.Library, cat *catalog.Catalog, provider *roster.Provider, logger *zap.Logger, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		sessions:  make(map[string]*Session),
		library:   lib,
		catalog:   cat,
		roster:    provider,
		adapters:  autofill.DefaultRegistry(),
		validator: validation.Default(),
		idleTTL:   2 * time.Hour,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionManager) Library() *formstate.Library {
	return m.library
}

// Create opens a session for userID. A non-empty formatID is selected right
// away and its sections are autofilled.
func (m *SessionManager) Create(userID, formatID string) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		Store: formstate.NewStore(m.library,
			formstate.WithClock(m.now),
			formstate.WithLogger(m.logger)),
		lastSeen: now,
	}
	if formatID != "" {
		if err := m.selectFormat(s, formatID); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("user_id", userID),
		zap.String("format_id", formatID))
	return s, nil
}

// Get returns the session and marks it as used.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.lastSeen = m.now()
	return s, nil
}

func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Expire drops sessions idle for longer than the TTL and returns how many
// were removed.
func (m *SessionManager) Expire() int {
	cutoff := m.now().Add(-m.idleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Info("expired idle sessions", zap.Int("count", n))
	}
	return n
}

// SelectFormat switches the session to another format, discarding any
// values entered so far.
func (m *SessionManager) SelectFormat(id, formatID string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return s, m.selectFormat(s, formatID)
}

func (m *SessionManager) selectFormat(s *Session, formatID string) error {
	format, err := m.catalog.Get(formatID)
	if err != nil {
		return err
	}
	s.Store.SelectFormat(format)
	m.autofillAll(s)
	return nil
}

// Autofill writes the adapter defaults of one section and returns how many
// values were written.
func (m *SessionManager) Autofill(id string, sheetIndex, sectionIndex int) (int, error) {
	s, err := m.Get(id)
	if err != nil {
		return 0, err
	}
	format := s.Store.SelectedFormat()
	if format == nil {
		return 0, formstate.ErrNoForm
	}
	section, ok := format.SectionAt(sheetIndex, sectionIndex)
	if !ok {
		return 0, formstate.ErrInvalidIndex
	}
	return m.adapters.Apply(s.Store, format.ID, sheetIndex, sectionIndex, *section, m.autofillContext(s, sheetIndex, sectionIndex)), nil
}

func (m *SessionManager) autofillAll(s *Session) int {
	format := s.Store.SelectedFormat()
	if format == nil {
		return 0
	}
	n := 0
	for i, sheet := range format.Sheets {
		for j, section := range sheet.Sections {
			n += m.adapters.Apply(s.Store, format.ID, i, j, section, m.autofillContext(s, i, j))
		}
	}
	return n
}

func (m *SessionManager) autofillContext(s *Session, sheetIndex, sectionIndex int) autofill.Context {
	snap := m.roster.Current()
	c := autofill.Context{Roster: snap, Now: m.now()}
	if u, ok := m.user(snap, s.UserID); ok {
		c.User = &u
	}
	if data := s.Store.CurrentFormData(); data != nil {
		c.Section, _ = data.SectionAt(sheetIndex, sectionIndex)
	}
	return c
}

// user resolves the identified user. Workers without an account are
// accepted under their roster name.
func (m *SessionManager) user(snap roster.Snapshot, id string) (models.User, bool) {
	if id == "" {
		return models.User{}, false
	}
	if u, ok := snap.UserByID(id); ok {
		return u, true
	}
	if w, ok := snap.WorkerByID(id); ok {
		return models.User{ID: w.ID, Nombre: w.Nombre, Role: models.RoleUser}, true
	}
	return models.User{}, false
}

// Reviewers lists the workers that may sign as reviewer, and the one
// already chosen in the given section, if any.
func (m *SessionManager) Reviewers(id string, sheetIndex, sectionIndex int) ([]models.Worker, string, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, "", err
	}
	candidates := autofill.ReviewerInfo{}.Candidates(m.roster.Current())
	var selected string
	if data := s.Store.CurrentFormData(); data != nil {
		section, _ := data.SectionAt(sheetIndex, sectionIndex)
		selected, _ = autofill.ReviewerInfo{}.Preselect(section, candidates)
	}
	return candidates, selected, nil
}

// SelectReviewer writes the reviewer's name and title into the section. An
// empty workerID clears them.
func (m *SessionManager) SelectReviewer(id string, sheetIndex, sectionIndex int, workerID string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	var chosen *models.Worker
	if workerID != "" {
		for _, w := range (autofill.ReviewerInfo{}).Candidates(m.roster.Current()) {
			if w.ID == workerID {
				chosen = &w
				break
			}
		}
		if chosen == nil {
			return fmt.Errorf("%w: reviewer %s", formstate.ErrNotFound, workerID)
		}
	}
	for _, d := range (autofill.ReviewerInfo{}).Select(chosen) {
		if err := s.Store.TryUpdateFieldValue(sheetIndex, sectionIndex, d.FieldID, d.Value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStep checks the step at index, or the current step when index is
// negative.
func (m *SessionManager) ValidateStep(id string, index int) (validation.Result, error) {
	s, err := m.Get(id)
	if err != nil {
		return validation.Result{}, err
	}
	format := s.Store.SelectedFormat()
	if format == nil {
		return validation.Result{}, formstate.ErrNoForm
	}
	steps := s.Store.WizardSteps()
	if index < 0 {
		index = s.Store.CurrentStep()
	}
	if index >= len(steps) {
		return validation.Result{}, formstate.ErrStepOutOfRange
	}
	step := steps[index]
	section, _ := s.Store.CurrentFormData().SectionAt(step.SheetIndex, step.SectionIndex)
	return m.validator.ValidateStep(format.ID, step.Section, section), nil
}

func (m *SessionManager) ValidateAll(id string) (validation.Result, error) {
	s, err := m.Get(id)
	if err != nil {
		return validation.Result{}, err
	}
	return m.validateAll(s), nil
}

func (m *SessionManager) validateAll(s *Session) validation.Result {
	return m.validator.ValidateAll(s.Store.SelectedFormat(), s.Store.CurrentFormData(), s.Store.WizardSteps())
}
