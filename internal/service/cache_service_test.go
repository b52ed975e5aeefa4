package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-mgmt-api/pkg/errors"
)

type stubCacheRepo struct {
	values  map[string]string
	ttls    map[string]time.Duration
	deleted []string
	getErr  error
	delErr  map[string]error
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{values: map[string]string{}, ttls: map[string]time.Duration{}, delErr: map[string]error{}}
}

func (r *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if r.getErr != nil {
		return r.getErr
	}
	v, ok := r.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = v
	return nil
}

func (r *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	r.values[key] = value.(string)
	r.ttls[key] = ttl
	return nil
}

func (r *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.deleted = append(r.deleted, pattern)
	return r.delErr[pattern]
}

func TestCacheServiceReadThrough(t *testing.T) {
	repo := newStubCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, "report:c1:class", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "report:c1:class", "ranked", 0))
	assert.Equal(t, defaultReportCacheTTL, repo.ttls["report:c1:class"])

	hit, err = svc.Get(ctx, "report:c1:class", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "ranked", out)
	assert.InDelta(t, 0.5, metrics.Snapshot().ReportCacheHitRatio, 0.001)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := newStubCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.False(t, hit)
	assert.EqualError(t, err, "connection refused")
}

func TestCacheServiceInvalidateTriesEveryPattern(t *testing.T) {
	repo := newStubCacheRepo()
	boom := errors.New("boom")
	repo.delErr["report:c1:*"] = boom
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	err := svc.Invalidate(context.Background(), "report:c1:*", "report:c2:*")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"report:c1:*", "report:c2:*"}, repo.deleted)
}

func TestCacheServiceDisabledIsAlwaysMiss(t *testing.T) {
	repo := newStubCacheRepo()
	repo.values["k"] = "v"
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "x", "y", 0))
	assert.NotContains(t, repo.values, "x")

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}
