// Package completion builds shell completion candidates from a process
// snapshot.
package completion

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pranshuparmar/taskman/pkg/model"
)

// Kind represents what kind of completion is requested
type Kind string

const (
	KindPIDs  Kind = "pids"
	KindNames Kind = "names"
)

// Candidates returns the candidates of kind that start with toComplete.
func Candidates(kind Kind, procs []model.Process, toComplete string) []string {
	switch kind {
	case KindPIDs:
		return PIDs(procs, toComplete)
	case KindNames:
		return Names(procs, toComplete)
	default:
		return nil
	}
}

// PIDs returns "pid\tname" pairs; the shell shows the name as a hint.
// The running taskman and its parent shell are left out.
func PIDs(procs []model.Process, toComplete string) []string {
	self, parent := os.Getpid(), os.Getppid()

	names := make(map[int]string, len(procs))
	pids := make([]int, 0, len(procs))
	for _, p := range procs {
		if p.PID == self || p.PID == parent {
			continue
		}
		if _, dup := names[p.PID]; !dup {
			names[p.PID] = filepath.Base(p.Name)
		}
		pids = append(pids, p.PID)
	}

	var out []string
	for _, s := range uniqueSortedInts(pids) {
		if !strings.HasPrefix(s, toComplete) {
			continue
		}
		pid, _ := strconv.Atoi(s)
		if name := names[pid]; isShellSafe(name) {
			out = append(out, s+"\t"+name)
		} else {
			out = append(out, s)
		}
	}
	return out
}

// Names returns the distinct executable base names.
func Names(procs []model.Process, toComplete string) []string {
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		base := filepath.Base(p.Name)
		if strings.HasPrefix(base, toComplete) {
			names = append(names, base)
		}
	}
	return uniqueSorted(names)
}

// shellMetaChars contains characters that are unsafe in shell completion contexts.
// Process names containing these characters are filtered out to prevent command injection.
const shellMetaChars = " \t\n$`\\\"';&|<>(){}[]!*?~"

// isShellSafe returns true if the string contains no shell metacharacters
func isShellSafe(s string) bool {
	return !strings.ContainsAny(s, shellMetaChars)
}

// uniqueSorted returns a sorted slice with duplicates removed
func uniqueSorted(items []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" && !seen[item] && isShellSafe(item) {
			seen[item] = true
			result = append(result, item)
		}
	}
	sort.Strings(result)
	return result
}

// uniqueSortedInts returns a sorted slice of ints as strings with duplicates removed
func uniqueSortedInts(items []int) []string {
	seen := make(map[int]bool)
	var nums []int
	for _, item := range items {
		if item > 0 && !seen[item] {
			seen[item] = true
			nums = append(nums, item)
		}
	}
	sort.Ints(nums)
	result := make([]string, len(nums))
	for i, n := range nums {
		result[i] = strconv.Itoa(n)
	}
	return result
}
