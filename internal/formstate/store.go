package formstate

import (
	"context"
	"slices"
	"sync"
	"time"

	"AUTOFILL/internal/models"
	"AUTOFILL/internal/preset"

	"go.uber.org/zap"
)

// State is a read-only view of a Store. FormData and format pointers are
// shared with the store and must not be mutated.
type State struct {
	SelectedFormat  *models.ExcelFormat `json:"selected_format"`
	CurrentFormData *models.FormData    `json:"current_form_data"`
	CurrentStep     int                 `json:"current_step"`
	WizardSteps     []models.WizardStep `json:"wizard_steps"`
	Signatures      []models.Signature  `json:"signatures"`
	Presets         []models.UserPreset `json:"presets"`
}

// Store is the wizard state of one in-progress submission. The session part
// (format, form data, steps, cursor) belongs to the store; signatures and
// presets live in a Library shared between stores.
//
// Every mutation notifies subscribers synchronously once the store lock is
// released.
type Store struct {
	mu          sync.RWMutex
	format      *models.ExcelFormat
	data        *models.FormData
	steps       []models.WizardStep
	currentStep int

	library *Library
	matcher *preset.Matcher
	now     func() time.Time
	logger  *zap.Logger

	listenersMu sync.Mutex
	listeners   map[int]func(State)
	nextID      int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithMatcher(m *preset.Matcher) Option {
	return func(s *Store) { s.matcher = m }
}

// NewStore creates an empty session bound to lib. A nil lib gets a fresh
// in-memory library.
func NewStore(lib *Library, opts ...Option) *Store {
	s := &Store{
		library:   lib,
		now:       time.Now,
		logger:    zap.NewNop(),
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.library == nil {
		s.library, _ = NewLibrary(context.Background(), nil, s.logger)
	}
	if s.matcher == nil {
		s.matcher = preset.NewMatcher()
	}
	return s
}

func (s *Store) Library() *Library {
	return s.library
}

// SetSelectedFormat replaces the active format only. Callers must pair it
// with SetCurrentFormData to keep both trees aligned; SelectFormat does both.
func (s *Store) SetSelectedFormat(format *models.ExcelFormat) {
	s.mu.Lock()
	s.format = format
	s.mu.Unlock()
	s.notify()
}

// SetCurrentFormData replaces the form data wholesale.
func (s *Store) SetCurrentFormData(data *models.FormData) {
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	s.notify()
}

// MarkCompleted stamps CompletedAt on a copy of the form data, but only when
// expected is still the current form data. It reports whether it did.
func (s *Store) MarkCompleted(expected *models.FormData, at time.Time) bool {
	s.mu.Lock()
	if expected == nil || s.data != expected {
		s.mu.Unlock()
		return false
	}
	completed := *expected
	completed.Metadata.CompletedAt = &at
	s.data = &completed
	s.mu.Unlock()
	s.notify()
	return true
}

// SelectFormat swaps format and a fresh FormData together, rebuilds the
// wizard steps and rewinds the cursor. A nil format resets the session.
func (s *Store) SelectFormat(format *models.ExcelFormat) {
	s.mu.Lock()
	s.format = format
	s.data = NewFormData(format, s.now())
	s.steps = BuildWizardSteps(format)
	s.currentStep = 0
	s.mu.Unlock()
	s.notify()
}

// UpdateFieldValue writes value into the field entry. It does nothing when no
// form is loaded or the coordinates are out of range.
func (s *Store) UpdateFieldValue(sheetIndex, sectionIndex int, fieldID string, value any) {
	_ = s.TryUpdateFieldValue(sheetIndex, sectionIndex, fieldID, value)
}

// TryUpdateFieldValue is UpdateFieldValue reporting ErrNoForm or
// ErrInvalidIndex instead of ignoring them.
func (s *Store) TryUpdateFieldValue(sheetIndex, sectionIndex int, fieldID string, value any) error {
	s.mu.Lock()
	next, err := withFieldValue(s.data, sheetIndex, sectionIndex, fieldID, value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.data = next
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) SetWizardSteps(steps []models.WizardStep) {
	s.mu.Lock()
	s.steps = slices.Clone(steps)
	if s.currentStep >= len(s.steps) {
		s.currentStep = max(len(s.steps)-1, 0)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) GoToNextStep() {
	s.mu.Lock()
	if s.currentStep >= len(s.steps)-1 {
		s.mu.Unlock()
		return
	}
	s.currentStep++
	s.mu.Unlock()
	s.notify()
}

func (s *Store) GoToPreviousStep() {
	s.mu.Lock()
	if s.currentStep <= 0 {
		s.mu.Unlock()
		return
	}
	s.currentStep--
	s.mu.Unlock()
	s.notify()
}

// GoToStep moves the cursor to n when 0 <= n < len(steps).
func (s *Store) GoToStep(n int) {
	_ = s.TryGoToStep(n)
}

func (s *Store) TryGoToStep(n int) error {
	s.mu.Lock()
	if n < 0 || n >= len(s.steps) {
		s.mu.Unlock()
		return ErrStepOutOfRange
	}
	s.currentStep = n
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) CurrentStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStep
}

// CurrentWizardStep returns the step under the cursor.
func (s *Store) CurrentWizardStep() (models.WizardStep, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentStep < 0 || s.currentStep >= len(s.steps) {
		return models.WizardStep{}, false
	}
	return s.deriveStep(s.steps[s.currentStep]), true
}

func (s *Store) AddSignature(ctx context.Context, sig models.Signature) error {
	return s.library.AddSignature(ctx, sig)
}

func (s *Store) RemoveSignature(ctx context.Context, id string) error {
	return s.library.RemoveSignature(ctx, id)
}

func (s *Store) GetSignatureByID(id string) (models.Signature, bool) {
	return s.library.SignatureByID(id)
}

func (s *Store) AddPreset(ctx context.Context, p models.UserPreset) error {
	return s.library.AddPreset(ctx, p)
}

func (s *Store) RemovePreset(ctx context.Context, id string) error {
	return s.library.RemovePreset(ctx, id)
}

func (s *Store) GetPresetByID(id string) (models.UserPreset, bool) {
	return s.library.PresetByID(id)
}

// ApplyPreset fills every field whose label matches the preset and stamps
// the preset's LastUsed. Missing preset, format or form data make it a no-op.
func (s *Store) ApplyPreset(ctx context.Context, presetID string) {
	if _, err := s.TryApplyPreset(ctx, presetID); err != nil {
		s.logger.Debug("preset not applied", zap.String("preset_id", presetID), zap.Error(err))
	}
}

// TryApplyPreset returns the number of fields written.
func (s *Store) TryApplyPreset(ctx context.Context, presetID string) (int, error) {
	p, ok := s.library.PresetByID(presetID)
	if !ok {
		return 0, ErrNotFound
	}

	s.mu.Lock()
	if s.format == nil || s.data == nil {
		s.mu.Unlock()
		return 0, ErrNoForm
	}
	data := s.data
	written := s.matcher.Apply(s.format, p, func(sheetIndex, sectionIndex int, fieldID string, value any) bool {
		next, err := withFieldValue(data, sheetIndex, sectionIndex, fieldID, value)
		if err != nil {
			// format and data disagree in shape; skip like UpdateFieldValue would
			return false
		}
		data = next
		return true
	})
	s.data = data
	s.mu.Unlock()
	s.notify()

	if err := s.library.TouchPreset(ctx, presetID, s.now()); err != nil {
		return written, err
	}
	return written, nil
}

// ResetForm clears the session. Signatures and presets are kept.
func (s *Store) ResetForm() {
	s.mu.Lock()
	s.format = nil
	s.data = nil
	s.currentStep = 0
	s.steps = nil
	s.mu.Unlock()
	s.notify()
}

// IsFormComplete is true when form data is loaded and every existing field
// entry is completed. Untouched fields are not considered.
func (s *Store) IsFormComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IsComplete(s.data)
}

// MissingRequiredFields lists required fields of the selected format that
// have no completed entry.
func (s *Store) MissingRequiredFields() []MissingField {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MissingRequired(s.format, s.data)
}

// IsReadyToSubmit combines IsFormComplete with the required-field check.
func (s *Store) IsReadyToSubmit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IsComplete(s.data) && len(MissingRequired(s.format, s.data)) == 0
}

func (s *Store) SelectedFormat() *models.ExcelFormat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

func (s *Store) CurrentFormData() *models.FormData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// WizardSteps returns the steps with IsCompleted derived from the current
// form data.
func (s *Store) WizardSteps() []models.WizardStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.derivedSteps()
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	state := State{
		SelectedFormat:  s.format,
		CurrentFormData: s.data,
		CurrentStep:     s.currentStep,
		WizardSteps:     s.derivedSteps(),
	}
	s.mu.RUnlock()
	state.Signatures = s.library.Signatures()
	state.Presets = s.library.Presets()
	return state
}

// Subscribe registers fn for session and library changes.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	cancelLib := s.library.Subscribe(func() { fn(s.Snapshot()) })
	return func() {
		cancelLib()
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	if len(s.listeners) == 0 {
		s.listenersMu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	state := s.Snapshot()
	for _, fn := range fns {
		fn(state)
	}
}

func (s *Store) derivedSteps() []models.WizardStep {
	if s.steps == nil {
		return nil
	}
	out := make([]models.WizardStep, len(s.steps))
	for i, step := range s.steps {
		out[i] = s.deriveStep(step)
	}
	return out
}

func (s *Store) deriveStep(step models.WizardStep) models.WizardStep {
	sectionData, _ := s.data.SectionAt(step.SheetIndex, step.SectionIndex)
	step.IsCompleted = sectionComplete(step.Section, sectionData)
	return step
}
