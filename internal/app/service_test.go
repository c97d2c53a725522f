package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	repository "github.com/okian/gauntlet/internal/adapters/repository"
	"github.com/okian/gauntlet/internal/domain/model"
	"github.com/okian/gauntlet/internal/domain/readiness"
	"github.com/okian/gauntlet/internal/domain/validation"
	"github.com/okian/gauntlet/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeStore keeps entries in memory and counts every call.
type fakeStore struct {
	mu      sync.Mutex
	entries []model.Entry
	nextID  int64
	calls   atomic.Int32
	closed  atomic.Bool
	failErr error
}

func (f *fakeStore) hit() error {
	f.calls.Add(1)
	if f.closed.Load() {
		return &repository.StorageError{Op: "fake", Err: repository.ErrClosed}
	}
	return f.failErr
}

func (f *fakeStore) TopN(_ context.Context, limit int) ([]model.Entry, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]model.Entry(nil), f.entries...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && model.RanksBefore(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, c model.Candidate) (int64, error) {
	if err := f.hit(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.entries = append(f.entries, model.Entry{
		ID: f.nextID, Name: c.Name, Cash: c.Cash, Sales: c.Sales, Burn: c.Burn,
		CreatedAt: "2026-01-02 03:04:05",
	})
	return f.nextID, nil
}

func (f *fakeStore) DeleteAll(context.Context) (int64, error) {
	if err := f.hit(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.entries))
	f.entries = nil
	return n, nil
}

func (f *fakeStore) Count(context.Context) (int, error) {
	if err := f.hit(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries), nil
}

func (f *fakeStore) Ping(context.Context) error { return f.hit() }

func (f *fakeStore) Close() error {
	f.closed.Store(true)
	return nil
}

func submission(name string, cash, sales, burn string) validation.Submission {
	return validation.Submission{
		Name: name, Cash: json.Number(cash), Sales: json.Number(sales), Burn: json.Number(burn),
	}
}

func TestService_BeforeReady(t *testing.T) {
	Convey("Given a service that has not started", t, func() {
		ctx := context.Background()
		store := &fakeStore{}
		svc := New(WithStore(store))

		Convey("When data operations are attempted", func() {
			_, listErr := svc.TopN(ctx)
			_, submitErr := svc.Submit(ctx, submission("Bob", "1", "1", "1"))
			_, invalidErr := svc.Submit(ctx, validation.Submission{Name: " "})
			_, resetErr := svc.Reset(ctx)

			Convey("Then each fails with ErrNotReady and storage is never touched", func() {
				So(svc.IsReady(), ShouldBeFalse)
				So(svc.Phase(), ShouldEqual, PhaseStarting)
				for _, err := range []error{listErr, submitErr, invalidErr, resetErr} {
					So(errors.Is(err, ErrNotReady), ShouldBeTrue)
					So(errors.Is(err, readiness.ErrNotReady), ShouldBeTrue)
				}
				So(store.calls.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_StartFailure(t *testing.T) {
	Convey("Given a store opener that fails", t, func() {
		ctx := context.Background()
		cause := errors.New("disk on fire")
		svc := New(WithStoreOpener(func(context.Context) (repository.Store, error) {
			return nil, cause
		}))

		err := svc.Start(ctx)

		Convey("Then Start reports a storage init error and the service never becomes ready", func() {
			So(errors.Is(err, ErrStorageInit), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(svc.Phase(), ShouldEqual, PhaseFailed)
			So(svc.IsReady(), ShouldBeFalse)

			again := svc.Start(ctx)
			So(errors.Is(again, ErrInvalidPhase), ShouldBeTrue)
			So(svc.IsReady(), ShouldBeFalse)
		})
	})
}

func TestService_Operations(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := &fakeStore{}
		svc := New(WithStore(store), WithTopLimit(2))
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.IsReady(), ShouldBeTrue)

		Convey("When a fractional entry is submitted and listed", func() {
			id, err := svc.Submit(ctx, submission("  Bob   Smith ", "12.7", "0", "-0.4"))
			entries, listErr := svc.TopN(ctx)

			Convey("Then it is normalized and rounded", func() {
				So(err, ShouldBeNil)
				So(id, ShouldEqual, 1)
				So(listErr, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Name, ShouldEqual, "Bob Smith")
				So(entries[0].Cash, ShouldEqual, 13)
				So(entries[0].Sales, ShouldEqual, 0)
				So(entries[0].Burn, ShouldEqual, 0)
				So(entries[0].CreatedAt, ShouldEqual, "2026-01-02 03:04:05")
			})
		})

		Convey("When more entries exist than the window", func() {
			for _, name := range []string{"a", "b", "c"} {
				_, err := svc.Submit(ctx, submission(name, "5", "5", "5"))
				So(err, ShouldBeNil)
			}
			entries, err := svc.TopN(ctx)

			Convey("Then only the configured window is returned", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].Name, ShouldEqual, "a")
				So(entries[1].Name, ShouldEqual, "b")
			})
		})

		Convey("When a submission is invalid", func() {
			before := store.calls.Load()
			_, err := svc.Submit(ctx, validation.Submission{Name: "Bob", Cash: "abc"})

			Convey("Then the validation error is returned without an insert", func() {
				So(err.Error(), ShouldEqual, validation.MsgScoresNumeric)
				So(store.calls.Load(), ShouldEqual, before)
			})
		})

		Convey("When the board is reset twice", func() {
			_, _ = svc.Submit(ctx, submission("a", "1", "1", "1"))
			_, _ = svc.Submit(ctx, submission("b", "1", "1", "1"))
			first, err1 := svc.Reset(ctx)
			second, err2 := svc.Reset(ctx)
			entries, _ := svc.TopN(ctx)

			Convey("Then the second reset deletes nothing", func() {
				So(err1, ShouldBeNil)
				So(first, ShouldEqual, 2)
				So(err2, ShouldBeNil)
				So(second, ShouldEqual, 0)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When stats are requested", func() {
			_, _ = svc.Submit(ctx, submission("a", "1", "1", "1"))
			stats := svc.Stats(ctx)

			Convey("Then they describe the phase and entry count", func() {
				So(stats["phase"], ShouldEqual, "ready")
				So(stats["ready"], ShouldEqual, true)
				So(stats["entries"], ShouldEqual, 1)
				So(stats["topLimit"], ShouldEqual, 2)
			})
		})
	})
}

func TestService_ConnectivityLoss(t *testing.T) {
	Convey("Given a started service whose storage disappears", t, func() {
		ctx := context.Background()
		store := &fakeStore{}
		svc := New(WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a statement-level failure occurs", func() {
			store.failErr = &repository.StorageError{Op: "insert", Err: errors.New("constraint failed")}
			_, err := svc.Submit(ctx, submission("a", "1", "1", "1"))

			Convey("Then readiness is kept", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrNotReady), ShouldBeFalse)
				So(svc.IsReady(), ShouldBeTrue)
			})
		})

		Convey("When a connectivity failure occurs", func() {
			store.closed.Store(true)
			_, err := svc.TopN(ctx)
			calls := store.calls.Load()
			_, after := svc.TopN(ctx)

			Convey("Then the gate closes and later calls skip storage", func() {
				So(repository.IsConnectivityError(err), ShouldBeTrue)
				So(svc.IsReady(), ShouldBeFalse)
				So(errors.Is(after, ErrNotReady), ShouldBeTrue)
				So(store.calls.Load(), ShouldEqual, calls)
			})
		})
	})
}

func TestService_Shutdown(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := &fakeStore{}
		svc := New(WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When it drains and stops", func() {
			svc.BeginDrain(ctx)
			drainingPhase := svc.Phase()
			_, drainErr := svc.TopN(ctx)
			stopErr := svc.Stop(ctx)
			secondStop := svc.Stop(ctx)

			Convey("Then requests are refused and the store is closed once", func() {
				So(drainingPhase, ShouldEqual, PhaseDraining)
				So(errors.Is(drainErr, ErrNotReady), ShouldBeTrue)
				So(stopErr, ShouldBeNil)
				So(secondStop, ShouldBeNil)
				So(store.closed.Load(), ShouldBeTrue)
				So(svc.Phase(), ShouldEqual, PhaseStopped)
				So(svc.IsReady(), ShouldBeFalse)
				So(errors.Is(svc.Start(ctx), ErrInvalidPhase), ShouldBeTrue)
			})
		})

		Convey("When Stop races with in-flight reads", func() {
			var wg sync.WaitGroup
			var notReady, ok atomic.Int32
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.TopN(ctx)
					switch {
					case err == nil:
						ok.Add(1)
					case errors.Is(err, ErrNotReady):
						notReady.Add(1)
					}
				}()
			}
			So(svc.Stop(ctx), ShouldBeNil)
			wg.Wait()

			Convey("Then no read observes a closed store", func() {
				So(ok.Load()+notReady.Load(), ShouldEqual, 20)
			})
		})
	})
}
