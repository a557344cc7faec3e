package formstate

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"AUTOFILL/internal/models"

	"go.uber.org/zap"
)

// Persister stores the durable slice of the form state: signatures and
// presets. Collections are written whole on every mutation.
type Persister interface {
	Load(ctx context.Context) ([]models.Signature, []models.UserPreset, error)
	SaveSignatures(ctx context.Context, signatures []models.Signature) error
	SavePresets(ctx context.Context, presets []models.UserPreset) error
}

// Library owns signatures and presets. It outlives any single form session
// and is shared by all of them.
type Library struct {
	// saveMu serializes mutations with their flush so the persister sees
	// snapshots in mutation order. It is always taken before mu.
	saveMu sync.Mutex

	mu         sync.RWMutex
	signatures []models.Signature
	presets    []models.UserPreset

	persister Persister
	logger    *zap.Logger

	listenersMu sync.Mutex
	listeners   map[int]func()
	nextID      int
}

// NewLibrary loads the persisted collections. A nil persister keeps
// everything in memory.
func NewLibrary(ctx context.Context, persister Persister, logger *zap.Logger) (*Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib := &Library{
		persister: persister,
		logger:    logger,
		listeners: make(map[int]func()),
	}
	if persister == nil {
		return lib, nil
	}
	signatures, presets, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}
	lib.signatures = signatures
	lib.presets = presets
	logger.Info("library loaded",
		zap.Int("signatures", len(signatures)),
		zap.Int("presets", len(presets)))
	return lib, nil
}

func (l *Library) Signatures() []models.Signature {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.signatures)
}

func (l *Library) Presets() []models.UserPreset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.presets)
}

// AddSignature appends sig. An id already in the library is rejected so
// lookups stay unambiguous.
func (l *Library) AddSignature(ctx context.Context, sig models.Signature) error {
	l.saveMu.Lock()
	l.mu.Lock()
	if slices.ContainsFunc(l.signatures, func(s models.Signature) bool { return s.ID == sig.ID }) {
		l.mu.Unlock()
		l.saveMu.Unlock()
		return fmt.Errorf("signature %q: %w", sig.ID, ErrDuplicateID)
	}
	l.signatures = append(slices.Clip(l.signatures), sig)
	snapshot := slices.Clone(l.signatures)
	l.mu.Unlock()

	err := l.flushSignatures(ctx, snapshot)
	l.saveMu.Unlock()
	l.notify()
	return err
}

// RemoveSignature drops the signature with id. Unknown ids are ignored.
func (l *Library) RemoveSignature(ctx context.Context, id string) error {
	l.saveMu.Lock()
	l.mu.Lock()
	next := slices.DeleteFunc(slices.Clone(l.signatures), func(s models.Signature) bool { return s.ID == id })
	if len(next) == len(l.signatures) {
		l.mu.Unlock()
		l.saveMu.Unlock()
		return nil
	}
	l.signatures = next
	snapshot := slices.Clone(next)
	l.mu.Unlock()

	err := l.flushSignatures(ctx, snapshot)
	l.saveMu.Unlock()
	l.notify()
	return err
}

func (l *Library) SignatureByID(id string) (models.Signature, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, s := range l.signatures {
		if s.ID == id {
			return s, true
		}
	}
	return models.Signature{}, false
}

func (l *Library) AddPreset(ctx context.Context, preset models.UserPreset) error {
	l.saveMu.Lock()
	l.mu.Lock()
	if slices.ContainsFunc(l.presets, func(p models.UserPreset) bool { return p.ID == preset.ID }) {
		l.mu.Unlock()
		l.saveMu.Unlock()
		return fmt.Errorf("preset %q: %w", preset.ID, ErrDuplicateID)
	}
	l.presets = append(slices.Clip(l.presets), preset)
	snapshot := slices.Clone(l.presets)
	l.mu.Unlock()

	err := l.flushPresets(ctx, snapshot)
	l.saveMu.Unlock()
	l.notify()
	return err
}

func (l *Library) RemovePreset(ctx context.Context, id string) error {
	l.saveMu.Lock()
	l.mu.Lock()
	next := slices.DeleteFunc(slices.Clone(l.presets), func(p models.UserPreset) bool { return p.ID == id })
	if len(next) == len(l.presets) {
		l.mu.Unlock()
		l.saveMu.Unlock()
		return nil
	}
	l.presets = next
	snapshot := slices.Clone(next)
	l.mu.Unlock()

	err := l.flushPresets(ctx, snapshot)
	l.saveMu.Unlock()
	l.notify()
	return err
}

func (l *Library) PresetByID(id string) (models.UserPreset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.presets {
		if p.ID == id {
			return p, true
		}
	}
	return models.UserPreset{}, false
}

// TouchPreset records usage of a preset. The preset list is replaced by a new
// slice where only that entry differs.
func (l *Library) TouchPreset(ctx context.Context, id string, at time.Time) error {
	l.saveMu.Lock()
	l.mu.Lock()
	idx := slices.IndexFunc(l.presets, func(p models.UserPreset) bool { return p.ID == id })
	if idx < 0 {
		l.mu.Unlock()
		l.saveMu.Unlock()
		return fmt.Errorf("preset %q: %w", id, ErrNotFound)
	}
	next := slices.Clone(l.presets)
	used := at
	next[idx].LastUsed = &used
	l.presets = next
	snapshot := slices.Clone(next)
	l.mu.Unlock()

	err := l.flushPresets(ctx, snapshot)
	l.saveMu.Unlock()
	l.notify()
	return err
}

// Subscribe registers fn to run after every library mutation.
func (l *Library) Subscribe(fn func()) (cancel func()) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() {
		l.listenersMu.Lock()
		defer l.listenersMu.Unlock()
		delete(l.listeners, id)
	}
}

func (l *Library) notify() {
	l.listenersMu.Lock()
	fns := make([]func(), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.listenersMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (l *Library) flushSignatures(ctx context.Context, signatures []models.Signature) error {
	if l.persister == nil {
		return nil
	}
	if err := l.persister.SaveSignatures(ctx, signatures); err != nil {
		l.logger.Error("failed to persist signatures", zap.Error(err))
		return fmt.Errorf("failed to persist signatures: %w", err)
	}
	return nil
}

func (l *Library) flushPresets(ctx context.Context, presets []models.UserPreset) error {
	if l.persister == nil {
		return nil
	}
	if err := l.persister.SavePresets(ctx, presets); err != nil {
		l.logger.Error("failed to persist presets", zap.Error(err))
		return fmt.Errorf("failed to persist presets: %w", err)
	}
	return nil
}
