package pathoram

// Storage provides bucket-level access to the ORAM tree structure.
// Buckets are addressed by their implicit-heap index: the root is bucket
// 0 and the children of bucket i are 2i+1 and 2i+2. Implementations may
// store data in memory, files, or remote services.
type Storage interface {
	// ReadBucket returns all block slots in the bucket at the given index.
	ReadBucket(idx int) ([]Block, error)

	// WriteBucket replaces the bucket at the given index.
	WriteBucket(idx int, blocks []Block) error

	// NumBuckets returns the total number of buckets in storage.
	NumBuckets() int

	// BucketSize returns the number of block slots per bucket.
	BucketSize() int

	// BlockSize returns the size of each block's data in bytes.
	BlockSize() int
}

// Block represents a single block slot in storage.
// For encrypted storage, Data contains ciphertext.
type Block struct {
	ID   int    // Block ID (EmptyBlockID = empty slot)
	Data []byte // Block data (plaintext or ciphertext depending on encryptor)
}

// InMemoryStorage implements Storage using in-memory slices.
type InMemoryStorage struct {
	buckets    [][]Block
	bucketSize int
	blockSize  int
}

// NewInMemoryStorage creates a new in-memory storage with the given
// dimensions. All slots are initialized as empty.
func NewInMemoryStorage(numBuckets, bucketSize, blockSize int) *InMemoryStorage {
	buckets := make([][]Block, numBuckets)
	for i := range buckets {
		buckets[i] = make([]Block, bucketSize)
		for j := range buckets[i] {
			buckets[i][j] = Block{
				ID:   EmptyBlockID,
				Data: make([]byte, blockSize),
			}
		}
	}
	return &InMemoryStorage{
		buckets:    buckets,
		bucketSize: bucketSize,
		blockSize:  blockSize,
	}
}

// ReadBucket returns a copy of all block slots in the bucket at idx.
func (s *InMemoryStorage) ReadBucket(idx int) ([]Block, error) {
	if idx < 0 || idx >= len(s.buckets) {
		return nil, ErrInvalidConfig
	}
	// Return a copy to prevent external aliasing of bucket contents
	result := make([]Block, len(s.buckets[idx]))
	for i, b := range s.buckets[idx] {
		result[i] = Block{
			ID:   b.ID,
			Data: make([]byte, len(b.Data)),
		}
		copy(result[i].Data, b.Data)
	}
	return result, nil
}

// WriteBucket replaces the bucket at idx.
func (s *InMemoryStorage) WriteBucket(idx int, blocks []Block) error {
	if idx < 0 || idx >= len(s.buckets) {
		return ErrInvalidConfig
	}
	if len(blocks) != s.bucketSize {
		return ErrInvalidConfig
	}
	for i, b := range blocks {
		s.buckets[idx][i] = Block{
			ID:   b.ID,
			Data: make([]byte, len(b.Data)),
		}
		copy(s.buckets[idx][i].Data, b.Data)
	}
	return nil
}

// NumBuckets returns the total number of buckets.
func (s *InMemoryStorage) NumBuckets() int {
	return len(s.buckets)
}

// BucketSize returns slots per bucket.
func (s *InMemoryStorage) BucketSize() int {
	return s.bucketSize
}

// BlockSize returns bytes per block.
func (s *InMemoryStorage) BlockSize() int {
	return s.blockSize
}

// TraceEvent records one physical bucket access.
type TraceEvent struct {
	Write bool // false for a bucket read
	Index int  // heap index of the touched bucket
}

// TraceStorage wraps a Storage and records the heap index of every bucket
// read and write in order. The recorded sequence is exactly what an
// adversary observing the backing store sees, which makes the wrapper the
// hook for access-pattern assertions.
type TraceStorage struct {
	inner Storage
	trace []TraceEvent
}

// NewTraceStorage wraps inner with access recording.
func NewTraceStorage(inner Storage) *TraceStorage {
	return &TraceStorage{inner: inner}
}

// ReadBucket records the access and delegates to the wrapped storage.
func (t *TraceStorage) ReadBucket(idx int) ([]Block, error) {
	t.trace = append(t.trace, TraceEvent{Write: false, Index: idx})
	return t.inner.ReadBucket(idx)
}

// WriteBucket records the access and delegates to the wrapped storage.
func (t *TraceStorage) WriteBucket(idx int, blocks []Block) error {
	t.trace = append(t.trace, TraceEvent{Write: true, Index: idx})
	return t.inner.WriteBucket(idx, blocks)
}

// NumBuckets returns the total number of buckets.
func (t *TraceStorage) NumBuckets() int { return t.inner.NumBuckets() }

// BucketSize returns slots per bucket.
func (t *TraceStorage) BucketSize() int { return t.inner.BucketSize() }

// BlockSize returns bytes per block.
func (t *TraceStorage) BlockSize() int { return t.inner.BlockSize() }

// Trace returns the recorded accesses. The slice aliases the recorder's
// buffer; callers must copy it before the next access if they keep it.
func (t *TraceStorage) Trace() []TraceEvent {
	return t.trace
}

// Reset discards the recorded accesses.
func (t *TraceStorage) Reset() {
	t.trace = t.trace[:0]
}
