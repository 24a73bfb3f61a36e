package engine

// Batcher partitions a composer's task stream into bounded slices so
// peak in-memory tasks stay near the configured batch size. Batch
// boundaries carry no ordering semantics.
type Batcher struct {
	composer *Composer
	size     int
}

// NewBatcher wraps composer with the given batch size.
func NewBatcher(composer *Composer, size int) *Batcher {
	return &Batcher{composer: composer, size: size}
}

// Next returns up to size tasks, or nil when the stream is exhausted.
func (b *Batcher) Next() []Task {
	batch := make([]Task, 0, b.size)
	for len(batch) < b.size {
		task, ok := b.composer.Next()
		if !ok {
			break
		}
		batch = append(batch, task)
	}
	if len(batch) == 0 {
		return nil
	}
	return batch
}
