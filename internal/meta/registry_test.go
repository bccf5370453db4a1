package meta

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandType() *TypeSchema {
	return &TypeSchema{
		Name: "command",
		Fields: []FieldSchema{
			{Key: "usage", Label: "Usage", Order: 1, Kind: Multi, PerPage: 2},
			{Key: "name", Label: "Name", Order: 0},
		},
		Matcher: Policy{Names: FieldNames("name")},
	}
}

func newRecord(t *testing.T, s *TypeSchema, kv ...string) *Record {
	t.Helper()
	rec := s.New()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, rec.Set(kv[i], kv[i+1]))
	}
	require.NoError(t, rec.Finalize())
	return rec
}

func TestRegisterSortsFieldsAndDefaultsLabel(t *testing.T) {
	r := NewRegistry()
	s := commandType()
	require.NoError(t, r.Register(s))

	assert.Equal(t, "name", s.Fields[0].Key)
	assert.Equal(t, "usage", s.Fields[1].Key)

	rec := newRecord(t, s, "name", "teleport")
	assert.Equal(t, "teleport", rec.ListLabel())
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema *TypeSchema
		want   error
	}{
		{"nil", nil, ErrInvalidSchema},
		{"uppercase", &TypeSchema{Name: "Command", Fields: []FieldSchema{{Key: "name"}}, Matcher: Policy{}}, ErrInvalidSchema},
		{"wildcard", &TypeSchema{Name: "all", Fields: []FieldSchema{{Key: "name"}}, Matcher: Policy{}}, ErrInvalidSchema},
		{"no matcher", &TypeSchema{Name: "x", Fields: []FieldSchema{{Key: "name"}}}, ErrInvalidSchema},
		{"no fields", &TypeSchema{Name: "x", Matcher: Policy{}}, ErrInvalidSchema},
		{"duplicate field", &TypeSchema{Name: "x", Fields: []FieldSchema{{Key: "a"}, {Key: "a"}}, Matcher: Policy{}}, ErrInvalidSchema},
		{"missing pattern field", &TypeSchema{Name: "x", Fields: []FieldSchema{{Key: "a"}}, Matcher: Policy{}, PatternField: "re"}, ErrInvalidSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.schema)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("duplicate type", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(commandType()))
		assert.ErrorIs(t, r.Register(commandType()), ErrDuplicateType)
	})

	t.Run("sealed after publish", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(commandType()))
		r.NewBuilder().Publish()
		assert.ErrorIs(t, r.Register(tagSchema()), ErrRegistrySealed)
	})

	t.Run("register racing publish", func(t *testing.T) {
		for range 50 {
			r := NewRegistry()
			require.NoError(t, r.Register(commandType()))

			var (
				wg   sync.WaitGroup
				err  error
				snap *Snapshot
			)
			wg.Add(2)
			go func() { defer wg.Done(); err = r.Register(tagSchema()) }()
			go func() { defer wg.Done(); snap = r.NewBuilder().Publish() }()
			wg.Wait()

			var types []string
			for _, tc := range snap.Counts() {
				types = append(types, tc.Type)
			}
			if err == nil {
				assert.Contains(t, types, TypeTag, "a successful register is in the sealing snapshot")
			} else {
				assert.ErrorIs(t, err, ErrRegistrySealed)
				assert.NotContains(t, types, TypeTag)
			}
		}
	})

	t.Run("must register panics", func(t *testing.T) {
		r := NewRegistry()
		assert.Panics(t, func() { r.MustRegister(commandType(), commandType()) })
	})
}

func TestPublishSwapsGeneration(t *testing.T) {
	r := NewRegistry()
	s := commandType()
	require.NoError(t, r.Register(s))

	assert.Equal(t, uint64(0), r.Snapshot().Generation())
	assert.Equal(t, []TypeCount{{Type: "command", Count: 0}}, r.Counts())

	b := r.NewBuilder()
	require.NoError(t, b.Add(newRecord(t, s, "name", "teleport")))
	require.NoError(t, b.Add(newRecord(t, s, "name", "narrate")))

	// nothing visible until publish
	recs, err := r.AllOf("command")
	require.NoError(t, err)
	assert.Empty(t, recs)

	old := r.Snapshot()
	snap := b.Publish()
	assert.Equal(t, uint64(1), snap.Generation())
	assert.Same(t, snap, r.Snapshot())

	recs, err = r.AllOf("command")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, []TypeCount{{Type: "command", Count: 2}}, r.Counts())

	// the old generation is untouched
	oldRecs, err := old.AllOf("command")
	require.NoError(t, err)
	assert.Empty(t, oldRecs)
}

func TestBuilderRejectsForeignRecords(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(commandType()))

	other := commandType()
	require.NoError(t, NewRegistry().Register(other))

	err := r.NewBuilder().Add(other.New())
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestAllOfUnknownType(t *testing.T) {
	r := NewBuiltinRegistry()
	_, err := r.AllOf("widget")
	assert.ErrorIs(t, err, ErrUnknownType)

	all, err := r.AllOf(Wildcard)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConcurrentReadersSeeWholeGenerations(t *testing.T) {
	r := NewRegistry()
	s := commandType()
	require.NoError(t, r.Register(s))

	const perGen = 50
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				recs, err := r.AllOf("command")
				if !assert.NoError(t, err) {
					return
				}
				n := len(recs)
				assert.True(t, n == 0 || n == perGen, "partial generation of %d records", n)
			}
		}()
	}

	for range 20 {
		b := r.NewBuilder()
		for range perGen {
			require.NoError(t, b.Add(newRecord(t, s, "name", "x")))
		}
		b.Publish()
	}
	close(stop)
	wg.Wait()
}
