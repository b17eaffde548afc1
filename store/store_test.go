package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/ben-axnick/PFCloneLogic/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func exercise(t *testing.T, st Store) {
	is := is.New(t)
	ctx := context.Background()
	_, ok, err := st.Get(ctx, "1|3132|3435|@--")
	is.NoErr(err)
	is.True(!ok)

	is.NoErr(st.Set(ctx, "1|3132|3435|@--", -100000))
	v, ok, err := st.Get(ctx, "1|3132|3435|@--")
	is.NoErr(err)
	is.True(ok)
	is.Equal(v, int32(-100000))

	is.NoErr(st.Set(ctx, "1|3132|3435|@--", 42))
	v, _, err = st.Get(ctx, "1|3132|3435|@--")
	is.NoErr(err)
	is.Equal(v, int32(42))
}

func TestMemoryStore(t *testing.T) {
	st := NewMemoryStore()
	exercise(t, st)
	is.New(t).Equal(st.Len(), 1)
}

func TestMemoryStoreConcurrent(t *testing.T) {
	is := is.New(t)
	st := NewMemoryStore()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				k := fmt.Sprintf("k%d", i)
				_ = st.Set(context.Background(), k, int32(i))
				_, _, _ = st.Get(context.Background(), k)
			}
		}(w)
	}
	wg.Wait()
	is.Equal(st.Len(), 1000)
}

func TestSQLiteStore(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "scores.db")
	st, err := NewSQLiteStore(path)
	is.NoErr(err)
	exercise(t, st)
	is.NoErr(st.Close())

	// scores survive a reopen
	st, err = NewSQLiteStore(path)
	is.NoErr(err)
	defer st.Close()
	v, ok, err := st.Get(context.Background(), "1|3132|3435|@--")
	is.NoErr(err)
	is.True(ok)
	is.Equal(v, int32(42))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("PUSHFIGHT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PUSHFIGHT_TEST_REDIS_URL not set")
	}
	st, err := NewRedisStore(url)
	is.New(t).NoErr(err)
	defer st.Close()
	exercise(t, st)
}

func TestDialSchemes(t *testing.T) {
	is := is.New(t)
	st, err := Dial("memory://")
	is.NoErr(err)
	_, ok := st.(*MemoryStore)
	is.True(ok)

	st, err = Dial("sqlite://" + filepath.Join(t.TempDir(), "s.db"))
	is.NoErr(err)
	_, ok = st.(*SQLiteStore)
	is.True(ok)
	is.NoErr(st.Close())

	_, err = Dial("mongodb://localhost")
	is.True(err != nil)
}

func TestOpenDegradesToNil(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigScoreStoreURL, "etcd://nowhere")
	is.True(Open(cfg) == nil)

	cfg.Set(config.ConfigScoreStoreURL, "memory://")
	is.True(Open(cfg) != nil)
}
