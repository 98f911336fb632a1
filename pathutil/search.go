package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// StdinPath is the path sentinel meaning "read from standard input".
const StdinPath = "-"

// FilePair groups the paths of one file by which pattern set it matched.
// A holds the path if it matched the first set, B if it matched the second.
type FilePair struct {
	A []string
	B []string
}

// FindFiles walks root recursively and returns every regular file whose base
// name matches at least one of patterns. A root ending in "/-" yields the
// standard input sentinel instead of walking anything.
func FindFiles(root string, patterns []string) ([]string, error) {
	if root == StdinPath || strings.HasSuffix(root, "/"+StdinPath) {
		return []string{StdinPath}, nil
	}

	res, err := compileAll(patterns)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		paths []string
	)
	err = walkFiles(root, func(p string) {
		if matchAny(res, filepath.Base(p)) {
			mu.Lock()
			paths = append(paths, p)
			mu.Unlock()
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// FindFilePairs walks root recursively and classifies every file against two
// pattern sets. Files matching neither set are skipped.
func FindFilePairs(root string, patternsA, patternsB []string) ([]FilePair, error) {
	resA, err := compileAll(patternsA)
	if err != nil {
		return nil, err
	}
	resB, err := compileAll(patternsB)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		pairs []FilePair
	)
	err = walkFiles(root, func(p string) {
		base := filepath.Base(p)
		var pair FilePair
		if matchAny(resA, base) {
			pair.A = []string{p}
		}
		if matchAny(resB, base) {
			pair.B = []string{p}
		}
		if pair.A == nil && pair.B == nil {
			return
		}
		mu.Lock()
		pairs = append(pairs, pair)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairKey(pairs[i]) < pairKey(pairs[j])
	})
	return pairs, nil
}

// Glob returns the files matching a doublestar pattern such as "logs/**/*.xz".
func Glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(ExpandUser(pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %q failed: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// walkFiles calls fn for each regular file under root. fn may be invoked
// from several goroutines at once.
func walkFiles(root string, fn func(path string)) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("failed to stat search root: %w", err)
	}

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		fn(p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s failed: %w", root, err)
	}
	return nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

func matchAny(res []*regexp.Regexp, name string) bool {
	for _, re := range res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func pairKey(p FilePair) string {
	if len(p.A) > 0 {
		return p.A[0]
	}
	return p.B[0]
}
