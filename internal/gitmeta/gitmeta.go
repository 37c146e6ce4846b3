// Package gitmeta captures git context for new checkpoints: current branch,
// HEAD commit and recently touched files. Capture is best effort: outside a
// repository it returns nothing rather than an error.
package gitmeta

import (
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog/log"
)

// maxFiles caps how many worktree paths are recorded per checkpoint.
const maxFiles = 20

// Info is the git metadata attached to a checkpoint at creation.
type Info struct {
	Branch string
	Commit string
	Files  []string
}

// Capture reads git metadata from the repository containing path. Returns
// nil when path is not inside a repository; partial data when parts of the
// lookup fail.
func Capture(path string) *Info {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("no git repository detected")
		return nil
	}

	info := &Info{}

	head, err := repo.Head()
	if err != nil {
		log.Debug().Err(err).Msg("resolve HEAD failed")
		return info
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	info.Commit = head.Hash().String()[:7]

	info.Files = changedFiles(repo)
	return info
}

// changedFiles lists modified or added worktree paths, sorted, capped at
// maxFiles.
func changedFiles(repo *git.Repository) []string {
	worktree, err := repo.Worktree()
	if err != nil {
		return nil
	}

	status, err := worktree.Status()
	if err != nil {
		log.Debug().Err(err).Msg("worktree status failed")
		return nil
	}

	var files []string
	for path, s := range status {
		if s.Worktree == git.Unmodified && s.Staging == git.Unmodified {
			continue
		}
		if s.Worktree == git.Untracked {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)

	if len(files) > maxFiles {
		files = files[:maxFiles]
	}
	return files
}
