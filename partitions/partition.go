package partitions

import (
	"fmt"
)

// Partition represents a collection of items (elements or element blocks)
// that execute together as one unit of work
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Membership
	Elements    []int // Global indices in this partition
	NumElements int   // Actual number of active entries
	MaxElements int   // Padded size for uniform inner loops
}

// PartitionLayout manages the complete decomposition
type PartitionLayout struct {
	// All partitions
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(NumElements) across all partitions
	TotalElements int // Sum of all actual elements across partitions
	NumPartitions int // Total number of partitions

	// Element to partition mapping
	EToP []int // Length TotalElements: element k belongs to partition EToP[k]
}

// GetPartition returns the partition containing element k
func (pl *PartitionLayout) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[elementID]
}

// ValidateLayout checks partition consistency
func (pl *PartitionLayout) ValidateLayout() error {
	actualMax := 0
	total := 0
	for _, p := range pl.Partitions {
		if p.NumElements > actualMax {
			actualMax = p.NumElements
		}
		if p.MaxElements != pl.KpartMax {
			return fmt.Errorf("partition %d: MaxElements %d != KpartMax %d",
				p.ID, p.MaxElements, pl.KpartMax)
		}
		if p.NumElements != len(p.Elements) {
			return fmt.Errorf("partition %d: NumElements %d != len(Elements) %d",
				p.ID, p.NumElements, len(p.Elements))
		}
		for _, e := range p.Elements {
			if pl.GetPartition(e) != p.ID {
				return fmt.Errorf("partition %d: element %d mapped to partition %d",
					p.ID, e, pl.GetPartition(e))
			}
		}
		total += p.NumElements
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}
	if total != pl.TotalElements {
		return fmt.Errorf("partitions hold %d elements, layout has %d", total, pl.TotalElements)
	}
	return nil
}

// Padded returns the element list of partition p padded to width entries by
// repeating its last element. Padded slots therefore reference valid data.
func (pl *PartitionLayout) Padded(p, width int) []int {
	elems := pl.Partitions[p].Elements
	out := make([]int, width)
	n := copy(out, elems)
	for i := n; i < width; i++ {
		out[i] = elems[len(elems)-1]
	}
	return out
}
