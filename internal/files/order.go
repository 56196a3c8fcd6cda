package files

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"sciv/internal/errors"
)

// OrderMode is the policy used to order a collection.
type OrderMode int

const (
	// Insertion keeps the order in which files were found.
	Insertion OrderMode = iota
	NameAsc
	NameDesc
	MtimeAsc
	MtimeDesc
	// Random is a uniform shuffle. Files appearing later are appended
	// rather than reshuffled in.
	Random
)

var orderNames = map[OrderMode]string{
	Insertion: "none",
	NameAsc:   "name",
	NameDesc:  "name-desc",
	MtimeAsc:  "mtime",
	MtimeDesc: "mtime-desc",
	Random:    "random",
}

// OrderModes lists every mode in declaration order.
func OrderModes() []OrderMode {
	return []OrderMode{Insertion, NameAsc, NameDesc, MtimeAsc, MtimeDesc, Random}
}

func (m OrderMode) String() string {
	if name, ok := orderNames[m]; ok {
		return name
	}
	return fmt.Sprintf("OrderMode(%d)", int(m))
}

// ParseOrderMode accepts the names produced by String, plus "insertion".
func ParseOrderMode(s string) (OrderMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "insertion" || name == "" {
		return Insertion, nil
	}
	for mode, n := range orderNames {
		if n == name {
			return mode, nil
		}
	}
	return Insertion, errors.NewConfigError("unknown order mode", s, errors.InvalidConfig, nil)
}

// Apply reorders files in place. Sorting is stable; Random draws from rng.
func (m OrderMode) Apply(files []File, rng *rand.Rand) {
	switch m {
	case NameAsc:
		sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	case NameDesc:
		sort.SliceStable(files, func(i, j int) bool { return files[i].Path > files[j].Path })
	case MtimeAsc:
		sort.SliceStable(files, func(i, j int) bool { return files[i].ModTime.Before(files[j].ModTime) })
	case MtimeDesc:
		sort.SliceStable(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	case Random:
		rng.Shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })
	}
}
