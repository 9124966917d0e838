package entities

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxItems is the largest item count a planning request may carry
	MaxItems = 10
	// MaxPeriods is the largest horizon a planning request may carry
	MaxPeriods = 10
)

const itemLabelPrefix = "item"

// ItemLabel returns the external label for a zero-based item index ("item1" for 0)
func ItemLabel(item int) string {
	return fmt.Sprintf("%s%d", itemLabelPrefix, item+1)
}

// ParseItemLabel converts an "itemN" label back into a zero-based item index
func ParseItemLabel(label string) (int, error) {
	if !strings.HasPrefix(label, itemLabelPrefix) {
		return 0, fmt.Errorf("item label %q must look like %s<N>", label, itemLabelPrefix)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(label, itemLabelPrefix))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("item label %q must look like %s<N> with N >= 1", label, itemLabelPrefix)
	}
	return n - 1, nil
}

// ItemLabels returns the labels item1..itemN
func ItemLabels(nItems int) []string {
	labels := make([]string, nItems)
	for i := range labels {
		labels[i] = ItemLabel(i)
	}
	return labels
}

// PeriodNumber converts a zero-based period index to the one-based period number
func PeriodNumber(period int) int {
	return period + 1
}
