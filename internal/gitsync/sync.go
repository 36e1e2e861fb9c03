package gitsync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Sync keeps the library directory mirrored to a git remote
type Sync struct {
	baseDir string
	enabled bool
}

// New creates a Sync rooted at the library directory
func New(baseDir string) *Sync {
	return &Sync{
		baseDir: baseDir,
		enabled: false, // Will be set by checking if git is initialized
	}
}

// IsEnabled returns true if git sync is available and enabled
func (g *Sync) IsEnabled() bool {
	return g.enabled && g.isGitInitialized()
}

// Initialize checks if git is set up and enables sync if available
func (g *Sync) Initialize() error {
	if !g.isGitInitialized() {
		g.enabled = false
		return nil // Not an error, just not available
	}

	// Check if we have a remote configured
	if !g.hasRemote() {
		g.enabled = false
		return nil // Not an error, but can't sync without remote
	}

	g.enabled = true
	return nil
}

// SetupRepository initializes git and sets up the remote repository
func (g *Sync) SetupRepository(repoURL string) error {
	if repoURL == "" {
		return fmt.Errorf("repository URL cannot be empty")
	}

	if !g.isGitInitialized() {
		if err := g.runGitCommand("init"); err != nil {
			return fmt.Errorf("failed to initialize git repository: %w", err)
		}

		// Set default branch name to master
		if err := g.runGitCommand("branch", "-M", "master"); err != nil {
			// Not critical if this fails, some git versions don't support it
			fmt.Printf("Note: Could not set default branch to 'master': %v\n", err)
		}
	}

	if g.hasRemote() {
		// Update the remote URL if different
		currentURL, err := g.getRemoteURL()
		if err == nil && currentURL != repoURL {
			if err := g.runGitCommand("remote", "set-url", "origin", repoURL); err != nil {
				return fmt.Errorf("failed to update remote URL: %w", err)
			}
			fmt.Printf("Updated remote repository to: %s\n", repoURL)
		}
	} else {
		if err := g.runGitCommand("remote", "add", "origin", repoURL); err != nil {
			return fmt.Errorf("failed to add remote repository: %w", err)
		}
		fmt.Printf("Added remote repository: %s\n", repoURL)
	}

	// Create initial commit if no commits exist
	if !g.hasCommits() {
		readmePath := filepath.Join(g.baseDir, "README.md")
		if _, err := os.Stat(readmePath); os.IsNotExist(err) {
			readmeContent := []byte("# Template Factory Library\n\nThis repository contains your synchronized bonus package library.\n")
			if err := os.WriteFile(readmePath, readmeContent, 0644); err != nil {
				fmt.Printf("Warning: Could not create README: %v\n", err)
			}
		}

		if err := g.runGitCommand("add", "-A"); err != nil {
			return fmt.Errorf("failed to stage files: %w", err)
		}

		if err := g.runGitCommand("commit", "-m", "Initial template factory library commit"); err != nil {
			// Check if there are actually changes to commit
			if !strings.Contains(err.Error(), "nothing to commit") {
				return fmt.Errorf("failed to create initial commit: %w", err)
			}
		}
	}

	// Try to fetch from remote to check if it exists and is accessible
	if fetchErr := g.runGitCommand("fetch", "origin"); fetchErr != nil {
		if strings.Contains(fetchErr.Error(), "could not read Username") ||
			strings.Contains(fetchErr.Error(), "Authentication failed") ||
			strings.Contains(fetchErr.Error(), "Permission denied") {
			fmt.Printf("\n⚠️  Authentication required for: %s\n", repoURL)
			fmt.Println("\nFor GitHub repositories, you have two options:")
			fmt.Println("\n1. Use HTTPS with a Personal Access Token:")
			fmt.Println("   - Create a token at: https://github.com/settings/tokens")
			fmt.Println("   - Use format: https://YOUR_TOKEN@github.com/username/repo.git")
			fmt.Println("\n2. Use SSH (recommended):")
			fmt.Println("   - Setup SSH key: https://docs.github.com/en/authentication/connecting-to-github-with-ssh")
			fmt.Println("   - Use format: git@github.com:username/repo.git")
			return fmt.Errorf("authentication required for remote repository")
		}
		// For new repositories, fetch might fail which is okay
		if !strings.Contains(fetchErr.Error(), "couldn't find remote ref") {
			fmt.Printf("Warning: Could not fetch from remote (this is normal for new repositories): %v\n", fetchErr)
		}
	} else {
		g.pullRemoteContent()
	}

	// Determine current branch and push
	currentBranch := g.getCurrentBranch()
	fmt.Printf("📤 Pushing to remote branch '%s'...\n", currentBranch)

	if pushErr := g.runGitCommand("push", "-u", "origin", currentBranch); pushErr != nil {
		if strings.Contains(pushErr.Error(), "could not read Username") ||
			strings.Contains(pushErr.Error(), "Authentication failed") {
			return fmt.Errorf("authentication failed: please check your repository URL and credentials")
		}
		// Non-fatal push error
		fmt.Printf("Warning: Push failed (you can push manually later): %v\n", pushErr)
	} else {
		fmt.Println("✅ Successfully pushed to remote repository")
	}

	g.enabled = true
	fmt.Println("✅ Git synchronization successfully configured!")

	return nil
}

// pullRemoteContent overrides local content with the remote branch during setup
func (g *Sync) pullRemoteContent() {
	fmt.Println("📥 Pulling existing content from remote repository...")

	remoteBranches, err := g.getRemoteBranches()
	if err != nil {
		fmt.Printf("Warning: Could not determine remote branches: %v\n", err)
		remoteBranches = []string{"master"} // fallback
	}

	var remoteBranch string
	switch {
	case contains(remoteBranches, "master"):
		remoteBranch = "master"
	case contains(remoteBranches, "main"):
		remoteBranch = "main"
	case len(remoteBranches) > 0:
		remoteBranch = remoteBranches[0]
	default:
		fmt.Println("No remote branches found - proceeding with local content")
		return
	}

	fmt.Printf("🔄 Syncing with remote branch '%s'...\n", remoteBranch)

	if err := g.runGitCommand("checkout", "-B", remoteBranch); err != nil {
		fmt.Printf("Warning: Could not create/switch to branch %s: %v\n", remoteBranch, err)
	}

	// Pull with merge strategy, preferring remote content
	pullErr := g.runGitCommand("pull", "origin", remoteBranch, "--allow-unrelated-histories", "--strategy-option=theirs")
	if pullErr != nil {
		// If that fails, try a more aggressive approach - reset to remote
		fmt.Printf("Pull failed, resetting to match remote repository...\n")
		if resetErr := g.runGitCommand("reset", "--hard", fmt.Sprintf("origin/%s", remoteBranch)); resetErr != nil {
			fmt.Printf("Warning: Could not sync with remote: %v\n", pullErr)
		} else {
			fmt.Println("✅ Successfully synced with remote repository")
		}
	} else {
		fmt.Println("✅ Successfully pulled existing content")
	}
}

// CommitAndPush commits all library changes and pushes them to the remote
func (g *Sync) CommitAndPush(message string) error {
	if !g.IsEnabled() {
		return nil // Silently skip if not enabled
	}

	if err := g.runGitCommand("add", "-A"); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}

	hasChanges, err := g.hasChangesToCommit()
	if err != nil {
		return fmt.Errorf("failed to check for changes: %w", err)
	}

	if !hasChanges {
		return nil // No changes to sync
	}

	commitMessage := fmt.Sprintf("%s - %s", message, time.Now().Format("2006-01-02 15:04:05"))
	if err := g.runGitCommand("commit", "-m", commitMessage); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}

	// Push changes (best effort - the user can push manually later if needed)
	if err := g.runGitCommand("push"); err != nil {
		return fmt.Errorf("committed locally but failed to push: %w", err)
	}

	return nil
}

// Pull pulls changes from the remote repository with conflict resolution
func (g *Sync) Pull() error {
	if !g.IsEnabled() {
		return nil // Silently skip if not enabled
	}

	if err := g.runGitCommand("fetch", "origin"); err != nil {
		return fmt.Errorf("failed to fetch from remote: %w", err)
	}

	behind, err := g.isBehindRemote()
	if err != nil {
		return fmt.Errorf("failed to check remote status: %w", err)
	}

	if !behind {
		return nil // Already up to date
	}

	if err := g.runGitCommand("pull", "origin", g.getCurrentBranch()); err != nil {
		// Likely conflicts or divergent branches
		return g.handlePullConflict(err)
	}

	return nil
}

// Status returns a short human-readable sync status
func (g *Sync) Status() (string, error) {
	if !g.isGitInitialized() {
		return "Not initialized", nil
	}

	if !g.enabled {
		return "Sync disabled", nil
	}

	// Quick check for remote with reduced timeout
	if !g.hasRemoteQuick() {
		return "No remote configured", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain", "--branch")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "Status check timed out", nil
		}
		return "Status unknown", err
	}

	statusLines := strings.Split(string(output), "\n")
	if len(statusLines) > 0 {
		branchLine := statusLines[0]
		if strings.Contains(branchLine, "[ahead") {
			return "Changes need to be pushed", nil
		}
		if strings.Contains(branchLine, "[behind") {
			return "Remote has new changes", nil
		}
	}

	if len(statusLines) > 1 && statusLines[1] != "" {
		return "Uncommitted changes", nil
	}

	return "In sync", nil
}

// handlePullConflict attempts automatic resolution of pull failures
func (g *Sync) handlePullConflict(pullErr error) error {
	errStr := pullErr.Error()

	if strings.Contains(errStr, "divergent") || strings.Contains(errStr, "hint: You have divergent branches") {
		fmt.Printf("Detected divergent branches, attempting merge strategy...\n")

		err := g.runGitCommand("pull", "--strategy=recursive", "--strategy-option=theirs", "origin", g.getCurrentBranch())
		if err == nil {
			return nil
		}

		fmt.Printf("Merge failed, attempting rebase...\n")
		err = g.runGitCommand("pull", "--rebase", "origin", g.getCurrentBranch())
		if err == nil {
			return nil
		}

		fmt.Printf("Both merge and rebase failed. Manual intervention may be required.\n")
		return fmt.Errorf("automatic conflict resolution failed: %w", pullErr)
	}

	if strings.Contains(errStr, "conflict") || strings.Contains(errStr, "CONFLICT") {
		fmt.Printf("Detected merge conflicts, preferring remote version for safety...\n")
		return g.resolveConflictsAutomatically()
	}

	return pullErr // Unhandled error type
}

// resolveConflictsAutomatically accepts the remote version of every conflicted file
func (g *Sync) resolveConflictsAutomatically() error {
	cmd := exec.Command("git", "diff", "--name-only", "--diff-filter=U")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get conflicted files: %w", err)
	}

	conflictedFiles := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(conflictedFiles) == 0 || conflictedFiles[0] == "" {
		return fmt.Errorf("no conflicted files found")
	}

	// Prefer the remote version, package files are safer to re-render than to merge
	for _, file := range conflictedFiles {
		if file == "" {
			continue
		}

		if err := g.runGitCommand("checkout", "--theirs", file); err != nil {
			return fmt.Errorf("failed to resolve conflict in %s: %w", file, err)
		}

		if err := g.runGitCommand("add", file); err != nil {
			return fmt.Errorf("failed to stage resolved file %s: %w", file, err)
		}
	}

	if err := g.runGitCommand("commit", "--no-edit"); err != nil {
		return fmt.Errorf("failed to complete merge: %w", err)
	}

	fmt.Printf("Successfully resolved conflicts in %d files\n", len(conflictedFiles))
	return nil
}

// isGitInitialized checks if the directory has git initialized
func (g *Sync) isGitInitialized() bool {
	gitDir := filepath.Join(g.baseDir, ".git")
	if _, err := os.Stat(gitDir); os.IsNotExist(err) {
		return false
	}
	return true
}

// hasRemote checks if git has a remote configured
func (g *Sync) hasRemote() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "remote", "-v")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// hasRemoteQuick checks for a remote with a very short timeout for UI use
func (g *Sync) hasRemoteQuick() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "remote", "-v")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// hasCommits checks if the repository has any commits
func (g *Sync) hasCommits() bool {
	cmd := exec.Command("git", "rev-list", "-n", "1", "--all")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// hasChangesToCommit checks if there are staged changes ready to commit
func (g *Sync) hasChangesToCommit() (bool, error) {
	cmd := exec.Command("git", "diff", "--cached", "--quiet")
	cmd.Dir = g.baseDir
	err := cmd.Run()
	if err != nil {
		// diff --quiet returns non-zero exit code if there are differences
		if exitError, ok := err.(*exec.ExitError); ok {
			if exitError.ExitCode() == 1 {
				return true, nil
			}
		}
		return false, err
	}
	return false, nil
}

// getRemoteURL gets the current remote origin URL
func (g *Sync) getRemoteURL() (string, error) {
	cmd := exec.Command("git", "remote", "get-url", "origin")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// getRemoteBranches returns the list of branches on the remote
func (g *Sync) getRemoteBranches() ([]string, error) {
	cmd := exec.Command("git", "branch", "-r")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var branches []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "HEAD") {
			continue
		}
		if strings.HasPrefix(line, "origin/") {
			branches = append(branches, strings.TrimPrefix(line, "origin/"))
		}
	}
	return branches, nil
}

// getCurrentBranch returns the current git branch name
func (g *Sync) getCurrentBranch() string {
	cmd := exec.Command("git", "branch", "--show-current")
	cmd.Dir = g.baseDir
	output, err := cmd.Output()
	if err != nil {
		return "master" // Default fallback
	}

	branch := strings.TrimSpace(string(output))
	if branch == "" {
		return "master" // Fallback for detached HEAD
	}

	return branch
}

// isBehindRemote checks if the local branch is behind remote
func (g *Sync) isBehindRemote() (bool, error) {
	branch := g.getCurrentBranch()

	remoteCmd := exec.Command("git", "rev-parse", fmt.Sprintf("origin/%s", branch))
	remoteCmd.Dir = g.baseDir
	remoteOutput, err := remoteCmd.Output()
	if err != nil {
		// Remote branch might not exist yet
		return false, nil
	}
	remoteHash := strings.TrimSpace(string(remoteOutput))

	localCmd := exec.Command("git", "rev-parse", "HEAD")
	localCmd.Dir = g.baseDir
	localOutput, err := localCmd.Output()
	if err != nil {
		return false, err
	}
	localHash := strings.TrimSpace(string(localOutput))

	if remoteHash != localHash {
		// Check if remote hash is reachable from local (i.e., we're behind)
		mergeBaseCmd := exec.Command("git", "merge-base", "--is-ancestor", localHash, remoteHash)
		mergeBaseCmd.Dir = g.baseDir
		err := mergeBaseCmd.Run()
		return err == nil, nil
	}

	return false, nil // Up to date
}

// runGitCommand executes a git command in the base directory with timeout
func (g *Sync) runGitCommand(args ...string) error {
	return g.runGitCommandWithTimeout(10*time.Second, args...)
}

// runGitCommandWithTimeout executes a git command with a custom timeout
func (g *Sync) runGitCommandWithTimeout(timeout time.Duration, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.baseDir

	// Capture both stdout and stderr for better error messages
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("git %s timed out after %v", strings.Join(args, " "), timeout)
		}
		return fmt.Errorf("git %s failed: %s", strings.Join(args, " "), string(output))
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
