package screentrack

import (
	"fmt"
	"strconv"
	"strings"
)

// CPUCoreMask calculates the core mask by passing in the CPU core numbers as a
// slice, eg: []int{4,5,6,7}
func CPUCoreMask(cores []int) uintptr {

	var mask uintptr

	for _, core := range cores {
		mask |= 1 << core
	}

	return mask
}

// ParseCores parses a comma delimited list of core numbers, eg: "4,5,6,7"
func ParseCores(list string) ([]int, error) {

	var cores []int

	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)

		if s == "" {
			continue
		}

		core, err := strconv.Atoi(s)

		if err != nil || core < 0 || core >= 64 {
			return nil, fmt.Errorf("invalid cpu core: %q", s)
		}

		cores = append(cores, core)
	}

	return cores, nil
}
