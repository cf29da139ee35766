package partitions

import (
	"fmt"
	"math"
)

// PartitionBuilder groups a set of work items into partitions
type PartitionBuilder struct {
	Mesh *MeshConnectivity

	// Partitioning parameters
	TargetPartitionSize int // Desired elements per partition
	Strategy            PartitionStrategy
}

// MeshConnectivity describes what is being partitioned
type MeshConnectivity struct {
	NumElements int
}

// PartitionStrategy defines how elements are grouped
type PartitionStrategy int

const (
	// Simple strategies
	BlockPartition PartitionStrategy = iota // Consecutive elements, balanced sizes
	RoundRobin                              // Distribute cyclically
	FixedBlock                              // Consecutive runs of exactly TargetPartitionSize

	// Graph-based strategies
	GraphPartition    // Use a graph partitioner
	SpaceFillingCurve // Hilbert/Morton curve ordering
)

func (s PartitionStrategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round-robin"
	case FixedBlock:
		return "fixed-block"
	case GraphPartition:
		return "graph"
	case SpaceFillingCurve:
		return "space-filling-curve"
	}
	return fmt.Sprintf("PartitionStrategy(%d)", int(s))
}

// BuildPartitions creates a partition layout
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.Mesh == nil || pb.Mesh.NumElements < 1 {
		return nil, fmt.Errorf("partition builder: nothing to partition")
	}
	if pb.TargetPartitionSize < 1 {
		return nil, fmt.Errorf("partition builder: target partition size %d must be positive",
			pb.TargetPartitionSize)
	}

	numPartitions := pb.calculateNumPartitions()
	eToP := pb.partitionElements(numPartitions)
	partitions := pb.createPartitions(eToP, numPartitions)
	kpartMax := pb.calculateKpartMax(partitions)

	for i := range partitions {
		partitions[i].MaxElements = kpartMax
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalElements: pb.Mesh.NumElements,
		NumPartitions: len(partitions),
		EToP:          eToP,
	}

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}

	return layout, nil
}

// calculateNumPartitions determines partition count
func (pb *PartitionBuilder) calculateNumPartitions() int {
	numPartitions := int(math.Ceil(float64(pb.Mesh.NumElements) / float64(pb.TargetPartitionSize)))
	if numPartitions < 1 {
		numPartitions = 1
	}
	return numPartitions
}

// partitionElements assigns elements to partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) []int {
	eToP := make([]int, pb.Mesh.NumElements)

	switch pb.Strategy {
	case BlockPartition:
		elementsPerPartition := int(math.Ceil(float64(pb.Mesh.NumElements) / float64(numPartitions)))
		for i := 0; i < pb.Mesh.NumElements; i++ {
			eToP[i] = i / elementsPerPartition
			if eToP[i] >= numPartitions {
				eToP[i] = numPartitions - 1
			}
		}

	case RoundRobin:
		for i := 0; i < pb.Mesh.NumElements; i++ {
			eToP[i] = i % numPartitions
		}

	case FixedBlock:
		for i := 0; i < pb.Mesh.NumElements; i++ {
			eToP[i] = i / pb.TargetPartitionSize
		}

	default:
		// Graph and curve orderings need geometry that is not available here
		return pb.partitionWithStrategy(BlockPartition, numPartitions)
	}

	return eToP
}

// partitionWithStrategy recursively applies a different strategy
func (pb *PartitionBuilder) partitionWithStrategy(strategy PartitionStrategy, numPartitions int) []int {
	oldStrategy := pb.Strategy
	pb.Strategy = strategy
	result := pb.partitionElements(numPartitions)
	pb.Strategy = oldStrategy
	return result
}

// createPartitions builds partition structures from element assignments
func (pb *PartitionBuilder) createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{
			ID:       i,
			Elements: make([]int, 0),
		}
	}

	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		partitions[part].NumElements++
	}

	// drop empty trailing partitions that balanced splits can leave behind
	for len(partitions) > 1 && partitions[len(partitions)-1].NumElements == 0 {
		partitions = partitions[:len(partitions)-1]
	}
	return partitions
}

// calculateKpartMax finds maximum elements across all partitions
func (pb *PartitionBuilder) calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumElements > kpartMax {
			kpartMax = p.NumElements
		}
	}
	return kpartMax
}

// ElementBlocks groups nelem elements into consecutive blocks of blockSize.
// Every block but possibly the last is full.
func ElementBlocks(nelem, blockSize int) (*PartitionLayout, error) {
	pb := &PartitionBuilder{
		Mesh:                &MeshConnectivity{NumElements: nelem},
		TargetPartitionSize: blockSize,
		Strategy:            FixedBlock,
	}
	return pb.BuildPartitions()
}

// Distribute spreads nitems across at most nworkers partitions
func Distribute(nitems, nworkers int, strategy PartitionStrategy) (*PartitionLayout, error) {
	if nworkers < 1 {
		nworkers = 1
	}
	pb := &PartitionBuilder{
		Mesh:                &MeshConnectivity{NumElements: nitems},
		TargetPartitionSize: int(math.Ceil(float64(nitems) / float64(nworkers))),
		Strategy:            strategy,
	}
	return pb.BuildPartitions()
}
