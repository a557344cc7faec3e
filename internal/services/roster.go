package services

import (
	"context"
	"fmt"
	"path"
	"sort"
	"time"

	"AUTOFILL/internal/gitsync"
	"AUTOFILL/internal/roster"

	"go.uber.org/zap"
)

// RosterStore persists an edited roster. roster.DBSource implements it.
type RosterStore interface {
	Save(ctx context.Context, snap roster.Snapshot) error
}

var _ RosterStore = (*roster.DBSource)(nil)

// RosterService exposes the roster snapshot and the admin edits to it.
type RosterService struct {
	provider *roster.Provider
	syncer   *roster.Syncer
	store    RosterStore
	git      Committer
	dataDir  string
	now      func() time.Time
	logger   *zap.Logger
}

// NewRosterService wires the provider with its refresh loop. store and git
// are optional; without store the roster is read-only.
func NewRosterService(provider *roster.Provider, syncer *roster.Syncer, store RosterStore, git Committer, dataDir string, logger *zap.Logger) *RosterService {
	if dataDir == "" {
		dataDir = "public/data"
	}
	return &RosterService{
		provider: provider,
		syncer:   syncer,
		store:    store,
		git:      git,
		dataDir:  dataDir,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *RosterService) Current() roster.Snapshot {
	return s.provider.Current()
}

// Sync refreshes the snapshot from its source right away.
func (s *RosterService) Sync(ctx context.Context) (bool, error) {
	if s.syncer == nil {
		return false, nil
	}
	return s.syncer.SyncNow(ctx)
}

// SaveResult reports what Save did beyond the database write.
type SaveResult struct {
	Commit *gitsync.CommitResult `json:"commit,omitempty"`
}

// Save stores an edited roster, makes it current and commits the JSON data
// files. A failed commit is returned after the roster was already applied.
func (s *RosterService) Save(ctx context.Context, snap roster.Snapshot) (*SaveResult, error) {
	if s.store == nil {
		return nil, ErrRosterReadOnly
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return nil, err
	}
	s.provider.Load(snap)
	s.logger.Info("roster saved",
		zap.Int("workers", len(snap.Workers)),
		zap.Int("cuadrillas", len(snap.Cuadrillas)))

	res := &SaveResult{}
	if s.git == nil {
		return res, nil
	}

	docs, err := roster.Files(snap)
	if err != nil {
		return res, err
	}
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	files := make([]gitsync.File, 0, len(names))
	for _, name := range names {
		files = append(files, gitsync.File{Path: path.Join(s.dataDir, name), Content: docs[name]})
	}

	commit, err := s.git.Commit(ctx, gitsync.DataUpdateMessage(s.now()), files)
	if err != nil {
		return res, fmt.Errorf("failed to commit roster data: %w", err)
	}
	res.Commit = commit
	return res, nil
}
