package roster_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pulsegrid-client/internal/models"
	"pulsegrid-client/internal/roster"
	"pulsegrid-client/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRosterAPI struct {
	mu    sync.Mutex
	calls int
	list  []models.Practitioner
	err   error
}

func (f *fakeRosterAPI) Practitioners(ctx context.Context) ([]models.Practitioner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.list, f.err
}

var testRoster = []models.Practitioner{
	{Name: "王医生", Role: "doctor"},
	{Name: "李老师", Role: "teacher"},
	{Name: "陈老师", Role: "teacher"},
}

func TestGet_SecondCallServedFromCache(t *testing.T) {
	api := &fakeRosterAPI{list: testRoster}
	l := roster.NewLoader(api, store.NewMemoryKV(), time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := l.Get(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := l.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, api.calls, "第二次读取走缓存")
}

func TestGet_ExpiredCacheRefetches(t *testing.T) {
	api := &fakeRosterAPI{list: testRoster}
	l := roster.NewLoader(api, store.NewMemoryKV(), 10*time.Millisecond, zap.NewNop())
	ctx := context.Background()

	_, err := l.Get(ctx)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	_, err = l.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, api.calls)
}

func TestGet_CorruptCacheFallsBackToSource(t *testing.T) {
	api := &fakeRosterAPI{list: testRoster}
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "pulsegrid:practitioner-roster", "{not json", time.Minute))

	l := roster.NewLoader(api, kv, time.Minute, zap.NewNop())
	got, err := l.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, 1, api.calls)
}

func TestGet_SourceErrorPropagates(t *testing.T) {
	api := &fakeRosterAPI{err: errors.New("unreachable")}
	l := roster.NewLoader(api, store.NewMemoryKV(), time.Minute, zap.NewNop())

	_, err := l.Get(context.Background())
	require.Error(t, err)
}

func TestTeachers_FiltersByRole(t *testing.T) {
	api := &fakeRosterAPI{list: testRoster}
	l := roster.NewLoader(api, store.NewMemoryKV(), time.Minute, zap.NewNop())

	teachers, err := l.Teachers(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	for _, p := range teachers {
		require.Equal(t, "teacher", p.Role)
	}
}
