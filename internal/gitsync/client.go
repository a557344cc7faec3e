// Package gitsync commits files to a GitHub branch through the git data
// API, without a local checkout.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNotConfigured = errors.New("github repository not configured")

const (
	fileMode = "100644"

	// maxConcurrentBlobs bounds the blob uploads in flight.
	maxConcurrentBlobs = 4
)

type Config struct {
	Token  string
	Owner  string
	Repo   string
	Branch string
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string
}

type File struct {
	Path    string
	Content []byte
}

type CommitResult struct {
	SHA     string `json:"sha"`
	URL     string `json:"url"`
	Message string `json:"message"`
	Files   int    `json:"files"`
}

type Client struct {
	gh     *github.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient returns ErrNotConfigured when the token, owner or repo is
// missing. Branch defaults to main.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Token == "" || cfg.Owner == "" || cfg.Repo == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gh := github.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
		gh.BaseURL = u
	}
	return &Client{gh: gh, cfg: cfg, logger: logger}, nil
}

// Commit writes files on top of the branch head as a single commit and
// moves the branch to it. The ref update is not forced, so a concurrent
// push makes it fail instead of being overwritten.
func (c *Client) Commit(ctx context.Context, message string, files []File) (*CommitResult, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to commit")
	}
	owner, repo := c.cfg.Owner, c.cfg.Repo
	refName := "heads/" + c.cfg.Branch

	ref, _, err := c.gh.Git.GetRef(ctx, owner, repo, refName)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch ref: %w", err)
	}
	parentSHA := ref.GetObject().GetSHA()

	parent, _, err := c.gh.Git.GetCommit(ctx, owner, repo, parentSHA)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	entries := make([]*github.TreeEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBlobs)
	for i, f := range files {
		g.Go(func() error {
			blob, _, err := c.gh.Git.CreateBlob(gctx, owner, repo, &github.Blob{
				Content:  github.String(string(f.Content)),
				Encoding: github.String("utf-8"),
			})
			if err != nil {
				return fmt.Errorf("failed to create blob for %s: %w", f.Path, err)
			}
			entries[i] = &github.TreeEntry{
				Path: github.String(f.Path),
				Mode: github.String(fileMode),
				Type: github.String("blob"),
				SHA:  blob.SHA,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tree, _, err := c.gh.Git.CreateTree(ctx, owner, repo, parent.GetTree().GetSHA(), entries)
	if err != nil {
		return nil, fmt.Errorf("failed to create tree: %w", err)
	}

	commit, _, err := c.gh.Git.CreateCommit(ctx, owner, repo, &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: tree.SHA},
		Parents: []*github.Commit{{SHA: github.String(parentSHA)}},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create commit: %w", err)
	}

	_, _, err = c.gh.Git.UpdateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/" + refName),
		Object: &github.GitObject{SHA: commit.SHA},
	}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to update branch ref: %w", err)
	}

	c.logger.Info("committed files",
		zap.String("repo", owner+"/"+repo),
		zap.String("branch", c.cfg.Branch),
		zap.String("sha", commit.GetSHA()),
		zap.Int("files", len(files)))

	return &CommitResult{
		SHA:     commit.GetSHA(),
		URL:     commit.GetHTMLURL(),
		Message: message,
		Files:   len(files),
	}, nil
}

// DataUpdateMessage is the commit message used for roster changes made by
// administrators.
func DataUpdateMessage(now time.Time) string {
	return "chore: Update data files (admin changes) - " + now.UTC().Format("2006-01-02T15:04:05.000Z")
}
