package limiter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bhupeshcoding/codecoach/models"
)

func TestAllowWithinBudget(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if err := l.Allow(); err != nil {
			t.Fatalf("call %d rejected: %v", i, err)
		}
	}
	err := l.Allow()
	if err == nil {
		t.Fatal("expected rejection after budget exhausted")
	}
	var rle *models.RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError got %T", err)
	}
	if rle.Max != 3 || rle.Window != time.Minute {
		t.Fatalf("unexpected error fields: %+v", rle)
	}
}

func TestAllowAfterWindowSlides(t *testing.T) {
	current := time.Now()
	l := New(2, time.Minute)
	l.now = func() time.Time { return current }

	if err := l.Allow(); err != nil {
		t.Fatalf("first call rejected: %v", err)
	}
	if err := l.Allow(); err != nil {
		t.Fatalf("second call rejected: %v", err)
	}
	if err := l.Allow(); err == nil {
		t.Fatal("expected rejection at budget")
	}

	current = current.Add(61 * time.Second)
	if err := l.Allow(); err != nil {
		t.Fatalf("call after window slide rejected: %v", err)
	}
}

func TestRemaining(t *testing.T) {
	l := New(5, time.Minute)
	if got := l.Remaining(); got != 5 {
		t.Fatalf("expected 5 remaining got %d", got)
	}
	_ = l.Allow()
	_ = l.Allow()
	if got := l.Remaining(); got != 3 {
		t.Fatalf("expected 3 remaining got %d", got)
	}
}

func TestAllowConcurrent(t *testing.T) {
	const max = 50
	l := New(max, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < max*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Allow(); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != max {
		t.Fatalf("expected exactly %d admissions got %d", max, admitted)
	}
}

func TestPerKeyIndependentWindows(t *testing.T) {
	p := NewPerKey(1, time.Minute)
	if err := p.Allow("alice"); err != nil {
		t.Fatalf("alice rejected: %v", err)
	}
	if err := p.Allow("bob"); err != nil {
		t.Fatalf("bob rejected despite fresh window: %v", err)
	}
	if err := p.Allow("alice"); err == nil {
		t.Fatal("expected alice to be over budget")
	}
}

func TestMiddlewareRejectsOverBudget(t *testing.T) {
	e := echo.New()
	l := New(2, time.Minute)
	handler := Middleware(l)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("first request rejected: %v", err)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Fatalf("expected 1 remaining got %q", got)
	}

	rec = httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("second request rejected: %v", err)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected 0 remaining got %q", got)
	}

	rec = httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	var rle *models.RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError got %v", err)
	}
}
