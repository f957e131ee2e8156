package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/terrainforge/backend/pkg/db/models"
	pkgerrors "github.com/terrainforge/backend/pkg/errors"
	"github.com/terrainforge/backend/pkg/redis"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Asset{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM assets")
	})
	return db
}

type fakeCache struct {
	entries map[string]string
	gets    int
	dels    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.gets++
	val, ok := f.entries[key]
	if !ok {
		return "", redis.ErrMiss
	}
	return val, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case string:
		f.entries[key] = v
	case []byte:
		f.entries[key] = string(v)
	}
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.dels++
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *fakeCache) CatalogKey(parts ...string) string {
	key := "tf:catalog"
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

func priceStr(v string) *string {
	return &v
}

func TestServiceCreateAndLoadCatalog(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc, err := NewService(NewRepository(newTestDB(t)), cache, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService error = %v", err)
	}

	created, err := svc.CreateAsset(ctx, CreateAssetInput{
		Name:      "Watch Tower",
		AABB:      [3]float64{0.2, 0.4, 0.2},
		BasePrice: priceStr("129.50"),
		Tags:      []string{"fantasy"},
	})
	if err != nil {
		t.Fatalf("CreateAsset error = %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated asset id")
	}
	if created.Footprint.Cols != 1 || created.Footprint.Rows != 1 {
		t.Fatalf("expected derived 1x1 footprint, got %+v", created.Footprint)
	}

	cat, err := svc.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog error = %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("expected 1 asset in snapshot, got %d", cat.Len())
	}

	// Second load must come from the cache.
	getsBefore := cache.gets
	if _, err := svc.LoadCatalog(ctx); err != nil {
		t.Fatalf("second LoadCatalog error = %v", err)
	}
	if cache.gets != getsBefore+1 {
		t.Fatal("expected a cache read on second load")
	}

	// Writes invalidate the cached manifest.
	delsBefore := cache.dels
	if _, err := svc.CreateAsset(ctx, CreateAssetInput{
		Name: "Barricade",
		AABB: [3]float64{0.3, 0.1, 0.1},
	}); err != nil {
		t.Fatalf("CreateAsset error = %v", err)
	}
	if cache.dels != delsBefore+1 {
		t.Fatal("expected cache invalidation after create")
	}
}

func TestServiceGetAssetNotFound(t *testing.T) {
	svc, err := NewService(NewRepository(newTestDB(t)), nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService error = %v", err)
	}

	_, err = svc.GetAsset(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}

	_, err = svc.GetAsset(context.Background(), uuid.Nil)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for nil id, got %v", err)
	}
}

func TestServiceCreateAssetValidation(t *testing.T) {
	svc, err := NewService(NewRepository(newTestDB(t)), nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService error = %v", err)
	}

	cases := []CreateAssetInput{
		{Name: "", AABB: [3]float64{1, 1, 1}},
		{Name: "x", AABB: [3]float64{0, 1, 1}},
		{Name: "x", AABB: [3]float64{1, 1, 1}, BasePrice: priceStr("not-a-number")},
		{Name: "x", AABB: [3]float64{1, 1, 1}, BasePrice: priceStr("-3")},
		{Name: "x", AABB: [3]float64{1, 1, 1}, RotationStepDeg: 500},
	}
	for i, input := range cases {
		if _, err := svc.CreateAsset(context.Background(), input); pkgerrors.As(err) == nil {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestServiceSeedFromManifest(t *testing.T) {
	svc, err := NewService(NewRepository(newTestDB(t)), nil, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewService error = %v", err)
	}

	count, err := svc.SeedFromManifest(context.Background(), writeManifest(t, manifestFixture))
	if err != nil {
		t.Fatalf("SeedFromManifest error = %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 seeded assets, got %d", count)
	}

	// Seeding twice upserts rather than duplicating.
	if _, err := svc.SeedFromManifest(context.Background(), writeManifest(t, manifestFixture)); err != nil {
		t.Fatalf("second seed error = %v", err)
	}
	assets, err := svc.ListAssets(context.Background())
	if err != nil {
		t.Fatalf("ListAssets error = %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets after reseed, got %d", len(assets))
	}
}
