package walker

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// gitignoreCache discovers and applies nested .gitignore files the way git
// itself does: rules accumulate from the walk root down to a path's parent
// directory, with deeper rules (including negations) taking precedence.
type gitignoreCache struct {
	root     string
	patterns map[string][]string
	visited  map[string]struct{}
}

func newGitignoreCache(root string) *gitignoreCache {
	absRoot, _ := filepath.Abs(root)
	c := &gitignoreCache{
		root:     absRoot,
		patterns: make(map[string][]string),
		visited:  make(map[string]struct{}),
	}
	c.load(absRoot)
	return c
}

func (c *gitignoreCache) load(dir string) {
	if _, seen := c.visited[dir]; seen {
		return
	}
	c.visited[dir] = struct{}{}

	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		c.patterns[dir] = lines
	}
}

func (c *gitignoreCache) shouldIgnore(absPath string) bool {
	if len(c.patterns) == 0 {
		return false
	}

	var dirs []string
	for dir := filepath.Dir(absPath); ; dir = filepath.Dir(dir) {
		dirs = append(dirs, dir)
		if dir == c.root || dir == filepath.Dir(dir) {
			break
		}
	}

	var all []string
	for i := len(dirs) - 1; i >= 0; i-- {
		all = append(all, c.patterns[dirs[i]]...)
	}
	if len(all) == 0 {
		return false
	}

	relPath, err := filepath.Rel(c.root, absPath)
	if err != nil {
		return false
	}
	return ignore.CompileIgnoreLines(all...).MatchesPath(relPath)
}
