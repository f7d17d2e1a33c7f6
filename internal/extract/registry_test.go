package extract

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonathan/resume-importer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedExtractor string

func (n namedExtractor) Name() string { return string(n) }

func (n namedExtractor) Extract(context.Context, Input) (*types.ResumeRecord, error) {
	return types.NewResumeRecord(), nil
}

func TestRegistry_InitializesOnceUnderConcurrency(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry()
	r.Register("generic", func() (Extractor, error) {
		calls.Add(1)
		return namedExtractor("generic"), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x, err := r.Get("generic")
			assert.NoError(t, err)
			assert.Equal(t, "generic", x.Name())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistry_FailingFactoryIsIsolated(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry()
	r.Register("broken", func() (Extractor, error) {
		calls.Add(1)
		return nil, errors.New("baseline missing")
	})
	r.Register("nil", func() (Extractor, error) { return nil, nil })
	r.Register("generic", func() (Extractor, error) { return namedExtractor("generic"), nil })

	_, err := r.Get("broken")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "baseline missing")
	_, err = r.Get("broken")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "failed initialization is not retried")

	assert.False(t, r.Available("nil"))
	assert.True(t, r.Available("generic"))
}

func TestRegistry_UnknownName(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("fingerprint:nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(CapabilityProfile, func() (Extractor, error) { return namedExtractor("p"), nil })
	r.Register(CapabilityGeneric, func() (Extractor, error) { return namedExtractor("g"), nil })
	assert.Equal(t, []string{CapabilityGeneric, CapabilityProfile}, r.Names())
}
