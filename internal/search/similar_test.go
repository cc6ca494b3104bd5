package search_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"pulsegrid-client/internal/debounce"
	"pulsegrid-client/internal/models"
	"pulsegrid-client/internal/search"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSimilarAPI 仅用于单元测试
type fakeSimilarAPI struct {
	mu      sync.Mutex
	calls   []models.PulseGrid
	results []models.SimilarCase
	gate    chan struct{}
}

func (f *fakeSimilarAPI) SearchSimilar(ctx context.Context, grid models.PulseGrid) ([]models.SimilarCase, error) {
	f.mu.Lock()
	f.calls = append(f.calls, grid.Clone())
	gate := f.gate
	results := f.results
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return results, nil
}

func (f *fakeSimilarAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeLoader 记录被点选载入的病历 ID
type fakeLoader struct {
	mu     sync.Mutex
	loaded []int64
}

func (f *fakeLoader) LoadRecord(ctx context.Context, recordID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, recordID)
	return nil
}

func newLookup(api *fakeSimilarAPI, loader *fakeLoader, delay time.Duration) (*search.SimilarLookup, *debounce.Coordinator) {
	deb := debounce.NewCoordinator()
	return search.NewSimilarLookup(api, loader, deb, delay, zap.NewNop()), deb
}

func TestGridChanged_EmptyGridClearsWithoutNetworkCall(t *testing.T) {
	api := &fakeSimilarAPI{results: []models.SimilarCase{{RecordID: 1}}}
	lookup, deb := newLookup(api, &fakeLoader{}, time.Millisecond)
	defer deb.Stop()

	ctx := context.Background()
	grid := models.PulseGrid{"cun-fu": "浮"}
	lookup.GridChanged(ctx, grid)
	require.Eventually(t, func() bool { return len(lookup.Results()) == 1 }, time.Second, 5*time.Millisecond)

	// 清空九宫格：结果立即清空，不发请求
	lookup.GridChanged(ctx, models.PulseGrid{})
	require.Empty(t, lookup.Results())

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, api.callCount(), "空九宫格不得发起检索")
}

func TestGridChanged_BlankValuesCountAsEmpty(t *testing.T) {
	api := &fakeSimilarAPI{}
	lookup, deb := newLookup(api, &fakeLoader{}, time.Millisecond)
	defer deb.Stop()

	lookup.GridChanged(context.Background(), models.PulseGrid{"cun-fu": "   "})
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, api.callCount())
}

func TestGridChanged_RapidEditsCollapseToOneCall(t *testing.T) {
	api := &fakeSimilarAPI{}
	lookup, deb := newLookup(api, &fakeLoader{}, 50*time.Millisecond)
	defer deb.Stop()

	ctx := context.Background()
	lookup.GridChanged(ctx, models.PulseGrid{"cun-fu": "浮"})
	lookup.GridChanged(ctx, models.PulseGrid{"cun-fu": "浮紧"})
	lookup.GridChanged(ctx, models.PulseGrid{"cun-fu": "浮紧", "guan-fu": "弦"})

	time.Sleep(150 * time.Millisecond)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.calls, 1, "连续编辑只发最后一次检索")
	require.Equal(t, "弦", api.calls[0].Get("guan-fu"))
}

func TestGridChanged_PendingLookupCancelledByClear(t *testing.T) {
	api := &fakeSimilarAPI{}
	lookup, deb := newLookup(api, &fakeLoader{}, 50*time.Millisecond)
	defer deb.Stop()

	ctx := context.Background()
	lookup.GridChanged(ctx, models.PulseGrid{"cun-fu": "浮"})
	lookup.GridChanged(ctx, models.PulseGrid{})

	time.Sleep(150 * time.Millisecond)
	require.Zero(t, api.callCount(), "清空九宫格要取消未触发的检索")
}

func TestGridChanged_StaleCompletionDiscardedAfterClear(t *testing.T) {
	api := &fakeSimilarAPI{results: []models.SimilarCase{{RecordID: 1, PatientName: "赵六"}}}
	gate := make(chan struct{})
	api.gate = gate

	lookup, deb := newLookup(api, &fakeLoader{}, time.Millisecond)
	defer deb.Stop()

	ctx := context.Background()
	lookup.GridChanged(ctx, models.PulseGrid{"cun-fu": "浮"})
	require.Eventually(t, func() bool { return api.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// 在途期间清空九宫格：迟到的响应不得写回结果
	lookup.GridChanged(ctx, models.PulseGrid{})
	close(gate)

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, lookup.Results())
}

func TestSelectCase_DelegatesToSessionLoad(t *testing.T) {
	loader := &fakeLoader{}
	lookup, deb := newLookup(&fakeSimilarAPI{}, loader, time.Millisecond)
	defer deb.Stop()

	require.NoError(t, lookup.SelectCase(context.Background(), 42))

	loader.mu.Lock()
	defer loader.mu.Unlock()
	require.Equal(t, []int64{42}, loader.loaded)
}
