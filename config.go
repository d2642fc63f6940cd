package pathoram

import (
	"errors"

	"github.com/go-logr/logr"
)

// EmptyBlockID marks a bucket slot as empty.
const EmptyBlockID = -1

var (
	ErrInvalidConfig    = errors.New("invalid PathORAM configuration")
	ErrOutOfRange       = errors.New("block ID out of range")
	ErrInvalidDataSize  = errors.New("data size doesn't match block size")
	ErrStashOverflow    = errors.New("stash overflow")
	ErrEncryptionFailed = errors.New("block encryption failed")
	ErrDecryptionFailed = errors.New("block decryption failed")
)

// Op selects the operation performed by Access.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

// Config holds PathORAM construction parameters. The tree shape is fixed
// for the lifetime of an engine.
type Config struct {
	Height     int         // Tree height L; leaves sit at level L, the root at level 0
	BlockSize  int         // Payload size of each block in bytes (B parameter)
	BucketSize int         // Number of block slots per bucket (Z parameter)
	StashLimit int         // Stash safety bound; exceeding it yields ErrStashOverflow
	Seed       *uint64     // RNG seed for reproducible runs; nil seeds from system entropy
	Logger     logr.Logger // Optional logger; a zero value disables logging
}

// Validate checks the configuration for errors and applies defaults.
// Returns a copy of the config with defaults applied.
func (c Config) Validate() (Config, error) {
	if c.Height < 0 || c.Height > 30 {
		return c, ErrInvalidConfig
	}
	if c.BlockSize <= 0 || c.BucketSize < 0 || c.StashLimit < 0 {
		return c, ErrInvalidConfig
	}
	if c.BucketSize == 0 {
		c.BucketSize = 4
	}
	if c.StashLimit == 0 {
		c.StashLimit = 100
	}
	if c.Logger.GetSink() == nil {
		c.Logger = logr.Discard()
	}
	return c, nil
}

// TreeParams calculates tree dimensions from config.
// Returns (numLeaves, totalBuckets, numBlocks).
func (c Config) TreeParams() (numLeaves, totalBuckets, numBlocks int) {
	numLeaves = 1 << c.Height
	totalBuckets = (1 << (c.Height + 1)) - 1
	numBlocks = c.BucketSize * totalBuckets
	return
}
