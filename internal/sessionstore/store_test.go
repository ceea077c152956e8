package sessionstore

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/coffee-research/coffee/internal/models"
	"github.com/coffee-research/coffee/internal/services"
)

func sampleRecord() Record {
	sub := &models.Submission{
		Identifier:     "r1",
		SubmissionDate: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
		Responses:      []models.Response{models.NumberResponse{ItemIdentifier: "n", Value: 7}},
	}
	return Record{
		SessionID: "sess1",
		SurveyID:  "S1",
		UpdatedAt: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
		Snapshot: services.SessionSnapshot{
			Index:      1,
			Completed:  true,
			Respondent: "r1",
			Answers: map[string]models.Answer{
				"n":  models.NumericAnswer{Value: models.Float(7)},
				"mc": models.SelectionAnswer{Selected: []int{1}},
			},
			Submission: sub,
		},
	}
}

func exercise(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	if _, ok, err := store.Get(ctx, "sess1"); err != nil || ok {
		t.Fatalf("Get before Set: ok=%v err=%v", ok, err)
	}
	want := sampleRecord()
	if err := store.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get(ctx, "sess1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("record mismatch\nwant %+v\ngot  %+v", want, got)
	}
	if err := store.Delete(ctx, "sess1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "sess1"); ok {
		t.Fatalf("record still present after Delete")
	}
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore(time.Hour))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	if err := store.Set(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(context.Background(), "sess1"); ok {
		t.Fatalf("expected expired record")
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Hour)
	exercise(t, store)

	if err := store.Set(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("session:sess1"); ttl != time.Hour {
		t.Fatalf("ttl=%v, want 1h", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if _, ok, err := store.Get(context.Background(), "sess1"); err != nil || ok {
		t.Fatalf("expected expiry, ok=%v err=%v", ok, err)
	}
}
