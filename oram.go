package pathoram

import (
	"math/rand/v2"

	"github.com/go-logr/logr"
)

// PathORAM implements the Path ORAM protocol over a complete binary tree
// of buckets stored in implicit-heap order. Each access reads one
// root-to-leaf path into the stash and rebuilds the same path on the way
// back, so the physical access trace is independent of the block being
// touched.
//
// The engine is single-threaded: callers needing concurrency must
// serialize externally.
type PathORAM struct {
	cfg Config

	numLeaves  int
	numBuckets int
	numBlocks  int

	storage Storage     // pluggable storage backend
	posMap  PositionMap // pluggable position map
	encrypt Encryptor   // pluggable encryption

	stash stash
	rng   *rand.Rand
	log   logr.Logger

	stashHighWater int
}

// New creates a new PathORAM instance with explicit dependencies.
// Use this constructor when you need custom storage, position map, or
// encryption. Every block is assigned a uniformly random starting leaf,
// overwriting any prior contents of posMap.
func New(cfg Config, storage Storage, posMap PositionMap, enc Encryptor) (*PathORAM, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	numLeaves, totalBuckets, numBlocks := cfg.TreeParams()

	o := &PathORAM{
		cfg:        cfg,
		numLeaves:  numLeaves,
		numBuckets: totalBuckets,
		numBlocks:  numBlocks,
		storage:    storage,
		posMap:     posMap,
		encrypt:    enc,
		rng:        newLeafRNG(cfg.Seed),
		log:        cfg.Logger,
	}

	for id := 0; id < numBlocks; id++ {
		o.posMap.Set(id, o.randomLeaf())
	}

	o.log.V(1).Info("initialized path ORAM tree",
		"height", cfg.Height, "buckets", totalBuckets, "capacity", numBlocks)
	return o, nil
}

// NewInMemory creates a new PathORAM instance with in-memory storage, a
// dense position map, and no encryption. This is the simplest way to
// create a PathORAM for in-memory use.
func NewInMemory(cfg Config) (*PathORAM, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	_, totalBuckets, numBlocks := cfg.TreeParams()

	storage := NewInMemoryStorage(totalBuckets, cfg.BucketSize, cfg.BlockSize)
	posMap := NewArrayPositionMap(numBlocks)

	return New(cfg, storage, posMap, NoOpEncryptor{})
}

// Height returns the height L of the binary tree.
func (o *PathORAM) Height() int {
	return o.cfg.Height
}

// BucketCount returns the total number of buckets in the tree.
func (o *PathORAM) BucketCount() int {
	return o.numBuckets
}

// NumLeaves returns the number of leaf buckets in the tree.
func (o *PathORAM) NumLeaves() int {
	return o.numLeaves
}

// BlockSize returns the configured block payload size in bytes.
func (o *PathORAM) BlockSize() int {
	return o.cfg.BlockSize
}

// BucketSize returns the number of block slots per bucket.
func (o *PathORAM) BucketSize() int {
	return o.cfg.BucketSize
}

// Capacity returns the number of blocks this ORAM can store.
func (o *PathORAM) Capacity() int {
	return o.numBlocks
}

// StashSize returns the current number of blocks in the stash.
func (o *PathORAM) StashSize() int {
	return len(o.stash.entries)
}

// Read reads the block with the given ID. A block that has never been
// written reads as all zeros.
func (o *PathORAM) Read(blockID int) ([]byte, error) {
	return o.Access(OpRead, blockID, nil)
}

// Write stores data in the block with the given ID.
func (o *PathORAM) Write(blockID int, data []byte) error {
	_, err := o.Access(OpWrite, blockID, data)
	return err
}

// Access performs one oblivious operation; Read and Write are wrappers
// around it. For OpRead the returned slice holds the block's current
// payload and data may be nil. For OpWrite data is stored and the
// returned slice is nil.
func (o *PathORAM) Access(op Op, blockID int, data []byte) ([]byte, error) {
	if blockID < 0 || blockID >= o.numBlocks {
		return nil, ErrOutOfRange
	}
	if op == OpWrite && len(data) != o.cfg.BlockSize {
		return nil, ErrInvalidDataSize
	}
	return o.access(op, blockID, data)
}

// randomLeaf returns a uniform leaf index from the engine-private RNG.
func (o *PathORAM) randomLeaf() int {
	return o.rng.IntN(o.numLeaves)
}

// access performs the core Path ORAM access operation.
func (o *PathORAM) access(op Op, blockID int, data []byte) ([]byte, error) {
	// Remap before the path read: the observed path must be independent
	// of the block's next assignment.
	oldLeaf := o.posMap.Get(blockID)
	o.posMap.Set(blockID, o.randomLeaf())

	if err := o.readPath(oldLeaf); err != nil {
		return nil, err
	}

	var result []byte
	switch op {
	case OpRead:
		cur := o.stash.get(blockID)
		if cur == nil {
			// First touch: materialize a zero block so eviction treats
			// it like any other resident block.
			cur = make([]byte, o.cfg.BlockSize)
			o.stash.put(blockID, cur)
		}
		result = make([]byte, o.cfg.BlockSize)
		copy(result, cur)
	case OpWrite:
		buf := make([]byte, o.cfg.BlockSize)
		copy(buf, data)
		o.stash.put(blockID, buf)
	}

	if err := o.writePath(oldLeaf); err != nil {
		return nil, err
	}
	return result, nil
}

// readPath moves every block on the path to leaf into the stash. Buckets
// are read root first. The tree copies become stale the moment they land
// in the stash; writePath overwrites every bucket on the same path, so no
// stale copy survives the access.
func (o *PathORAM) readPath(leaf int) error {
	for level := 0; level <= o.cfg.Height; level++ {
		bucket, err := o.storage.ReadBucket(o.nodeOnPath(leaf, level))
		if err != nil {
			return err
		}
		for i := range bucket {
			if bucket[i].ID == EmptyBlockID {
				continue
			}
			plaintext, err := o.encrypt.Decrypt(bucket[i].ID, bucket[i].Data)
			if err != nil {
				return err
			}
			o.stash.put(bucket[i].ID, plaintext)
		}
	}
	return nil
}

// writePath rebuilds each bucket on the path from the deepest level up,
// packing at most BucketSize eligible stash blocks per bucket in stash
// iteration order. Eligibility is judged against the current position
// map, so the block accessed this round already follows its fresh
// assignment. A block eligible at some level is also eligible at every
// ancestor level, which is why descending from the leaf maximizes bucket
// utilization.
func (o *PathORAM) writePath(leaf int) error {
	scratch := make([]int, 0, o.cfg.BucketSize)

	for level := o.cfg.Height; level >= 0; level-- {
		node := o.nodeOnPath(leaf, level)

		scratch = scratch[:0]
		for _, e := range o.stash.entries {
			if len(scratch) == o.cfg.BucketSize {
				break
			}
			if o.nodeOnPath(o.posMap.Get(e.id), level) == node {
				scratch = append(scratch, e.id)
			}
		}

		bucket := make([]Block, o.cfg.BucketSize)
		for slot := range bucket {
			if slot < len(scratch) {
				id := scratch[slot]
				ciphertext, err := o.encrypt.Encrypt(id, o.stash.get(id))
				if err != nil {
					return err
				}
				bucket[slot] = Block{ID: id, Data: ciphertext}
				o.stash.remove(id)
			} else {
				bucket[slot] = Block{
					ID:   EmptyBlockID,
					Data: make([]byte, o.cfg.BlockSize+o.encrypt.Overhead()),
				}
			}
		}

		if err := o.storage.WriteBucket(node, bucket); err != nil {
			return err
		}
	}

	if n := o.stash.len(); n > o.stashHighWater {
		o.stashHighWater = n
		o.log.V(2).Info("stash high water", "blocks", n)
	}
	if o.stash.len() > o.cfg.StashLimit {
		return ErrStashOverflow
	}
	return nil
}

// nodeOnPath returns the heap index of the ancestor at the given level of
// the path to leaf. Leaves occupy heap indices [numLeaves-1, numBuckets);
// each step of the parent recurrence climbs one level.
func (o *PathORAM) nodeOnPath(leaf, level int) int {
	node := o.numLeaves - 1 + leaf
	for l := o.cfg.Height; l > level; l-- {
		node = (node - 1) / 2
	}
	return node
}

// Path returns the heap indices of the buckets from the root down to leaf.
func (o *PathORAM) Path(leaf int) []int {
	path := make([]int, o.cfg.Height+1)
	for level := range path {
		path[level] = o.nodeOnPath(leaf, level)
	}
	return path
}
