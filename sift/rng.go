package sift

import (
	"hash/fnv"
	"math/rand"
)

// StudyKey uniquely identifies a reproducible study run. Two studies with
// the same StudyKey and identical configuration MUST produce bit-for-bit
// identical results.
type StudyKey int64

// NewStudyKey creates a StudyKey from a seed value.
func NewStudyKey(seed int64) StudyKey {
	return StudyKey(seed)
}

// RNG subsystem names. Each randomized stage draws from its own stream so
// that changing one stage's consumption pattern cannot shift another's.
const (
	SubsystemSampler     = "sampler"
	SubsystemTuner       = "tuner"
	SubsystemPareto      = "pareto"
	SubsystemAttribution = "attribution"
)

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem. The derived seed for a subsystem is masterSeed XOR
// fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        StudyKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a StudyKey.
func NewPartitionedRNG(key StudyKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same *rand.Rand
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(SubsystemSeed(p.key, name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the StudyKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() StudyKey {
	return p.key
}

// SubsystemSeed derives the seed a subsystem RNG is created with. Exposed
// so components that run standalone (outside a pipeline) seed themselves
// the same way the pipeline would.
func SubsystemSeed(key StudyKey, name string) int64 {
	return int64(key) ^ fnv1a64(name)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
