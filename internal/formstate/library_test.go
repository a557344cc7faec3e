package formstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"AUTOFILL/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPersister struct {
	signatures     []models.Signature
	presets        []models.UserPreset
	signatureSaves int
	presetSaves    int
	failSaves      bool
}

func (m *memoryPersister) Load(context.Context) ([]models.Signature, []models.UserPreset, error) {
	return m.signatures, m.presets, nil
}

func (m *memoryPersister) SaveSignatures(_ context.Context, s []models.Signature) error {
	m.signatureSaves++
	if m.failSaves {
		return errors.New("disk full")
	}
	m.signatures = s
	return nil
}

func (m *memoryPersister) SavePresets(_ context.Context, p []models.UserPreset) error {
	m.presetSaves++
	if m.failSaves {
		return errors.New("disk full")
	}
	m.presets = p
	return nil
}

func TestLibrary_LoadsPersistedCollections(t *testing.T) {
	p := &memoryPersister{
		signatures: []models.Signature{{ID: "s1", Name: "Ana"}},
		presets:    []models.UserPreset{{ID: "p1", Name: "Base"}},
	}
	lib, err := NewLibrary(context.Background(), p, nil)
	require.NoError(t, err)

	sig, ok := lib.SignatureByID("s1")
	require.True(t, ok)
	assert.Equal(t, "Ana", sig.Name)
	_, ok = lib.PresetByID("p1")
	assert.True(t, ok)
}

func TestLibrary_WriteThrough(t *testing.T) {
	ctx := context.Background()
	p := &memoryPersister{}
	lib, err := NewLibrary(ctx, p, nil)
	require.NoError(t, err)

	require.NoError(t, lib.AddSignature(ctx, models.Signature{ID: "s1"}))
	require.NoError(t, lib.AddSignature(ctx, models.Signature{ID: "s2"}))
	require.NoError(t, lib.RemoveSignature(ctx, "s1"))
	assert.Equal(t, 3, p.signatureSaves)
	require.Len(t, p.signatures, 1)
	assert.Equal(t, "s2", p.signatures[0].ID)

	require.NoError(t, lib.AddPreset(ctx, models.UserPreset{ID: "p1"}))
	require.NoError(t, lib.TouchPreset(ctx, "p1", time.Unix(100, 0)))
	assert.Equal(t, 2, p.presetSaves)
	require.NotNil(t, p.presets[0].LastUsed)

	// removing an unknown id changes nothing and writes nothing
	require.NoError(t, lib.RemovePreset(ctx, "nope"))
	assert.Equal(t, 2, p.presetSaves)
}

func TestLibrary_DuplicateIDs(t *testing.T) {
	ctx := context.Background()
	lib, err := NewLibrary(ctx, nil, nil)
	require.NoError(t, err)

	require.NoError(t, lib.AddSignature(ctx, models.Signature{ID: "s1", Name: "first"}))
	err = lib.AddSignature(ctx, models.Signature{ID: "s1", Name: "second"})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, lib.Signatures(), 1)

	require.NoError(t, lib.AddPreset(ctx, models.UserPreset{ID: "p1"}))
	assert.ErrorIs(t, lib.AddPreset(ctx, models.UserPreset{ID: "p1"}), ErrDuplicateID)
}

func TestLibrary_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	p := &memoryPersister{failSaves: true}
	lib, err := NewLibrary(ctx, p, nil)
	require.NoError(t, err)

	err = lib.AddSignature(ctx, models.Signature{ID: "s1"})
	assert.Error(t, err)
	_, ok := lib.SignatureByID("s1")
	assert.True(t, ok)
}

func TestLibrary_TouchPresetPreservesOthers(t *testing.T) {
	ctx := context.Background()
	lib, err := NewLibrary(ctx, nil, nil)
	require.NoError(t, err)
	require.NoError(t, lib.AddPreset(ctx, models.UserPreset{ID: "a", Name: "A"}))
	require.NoError(t, lib.AddPreset(ctx, models.UserPreset{ID: "b", Name: "B"}))

	before := lib.Presets()
	require.NoError(t, lib.TouchPreset(ctx, "b", time.Unix(42, 0)))
	after := lib.Presets()

	assert.Equal(t, before[0], after[0])
	assert.Nil(t, before[1].LastUsed)
	require.NotNil(t, after[1].LastUsed)
	assert.ErrorIs(t, lib.TouchPreset(ctx, "zzz", time.Now()), ErrNotFound)
}

func TestLibrary_SharedBetweenStores(t *testing.T) {
	ctx := context.Background()
	lib, err := NewLibrary(ctx, nil, nil)
	require.NoError(t, err)

	a := NewStore(lib)
	b := NewStore(lib)
	a.SelectFormat(testFormat())

	require.NoError(t, a.AddSignature(ctx, models.Signature{ID: "s1"}))
	_, ok := b.GetSignatureByID("s1")
	assert.True(t, ok)
	assert.Nil(t, b.CurrentFormData())
}

// slowPersister holds the first signature save until release is closed.
type slowPersister struct {
	memoryPersister
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (p *slowPersister) SaveSignatures(ctx context.Context, s []models.Signature) error {
	p.mu.Lock()
	p.calls++
	first := p.calls == 1
	p.mu.Unlock()
	if first {
		close(p.entered)
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.memoryPersister.SaveSignatures(ctx, s)
}

func (p *slowPersister) saved() []models.Signature {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signatures
}

func TestLibrary_ConcurrentAddsPersistInOrder(t *testing.T) {
	ctx := context.Background()
	p := &slowPersister{entered: make(chan struct{}), release: make(chan struct{})}
	lib, err := NewLibrary(ctx, p, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- lib.AddSignature(ctx, models.Signature{ID: "a"})
	}()
	<-p.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- lib.AddSignature(ctx, models.Signature{ID: "b"})
	}()
	time.Sleep(50 * time.Millisecond)
	close(p.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, lib.Signatures(), 2)
	saved := p.saved()
	require.Len(t, saved, 2)
	assert.Equal(t, "a", saved[0].ID)
	assert.Equal(t, "b", saved[1].ID)
}
