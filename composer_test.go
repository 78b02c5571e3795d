package performance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/performance/date"
	"github.com/google/go-cmp/cmp"
)

func newTestComposer(repo Repository, oracle PriceOracle, today string) *Composer {
	c := NewComposer(repo, oracle, "USD")
	c.now = func() time.Time { return day(today) }
	return c
}

func TestComposer_EmptyPortfolio(t *testing.T) {
	repo := &fakeRepo{portfolios: map[string]Portfolio{
		"p1": {ID: "p1", Name: "Empty", CreatedDate: time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC)},
	}}
	c := newTestComposer(repo, fixedPrices(nil), "2025-01-05")

	report, ok, err := c.Report(context.Background(), "p1", Window{})
	if err != nil || !ok {
		t.Fatalf("Report() = _, %v, %v, want ok", ok, err)
	}
	for name, m := range map[string]Money{"value": report.TotalValue, "realized": report.TotalRealized, "unrealized": report.TotalUnrealized} {
		if !m.IsZero() {
			t.Errorf("total %s = %v, want 0", name, m)
		}
	}
	if len(report.Allocation) != 0 {
		t.Errorf("Allocation = %v, want empty", report.Allocation)
	}
	if len(report.Series) != 5 {
		t.Fatalf("len(Series) = %d, want 5", len(report.Series))
	}
	if first, last := report.Series[0].Date, report.Series[4].Date; first != date.New(2025, 1, 1) || last != date.New(2025, 1, 5) {
		t.Errorf("Series spans %v..%v, want 2025-01-01..2025-01-05", first, last)
	}
	for _, p := range report.Series {
		if !p.Value.IsZero() || p.Value.Currency() != "USD" {
			t.Errorf("point %v = %v %q, want 0 USD", p.Date, p.Value, p.Value.Currency())
		}
	}
}

func TestComposer_NotFound(t *testing.T) {
	calls := 0
	oracle := OracleFunc(func(ctx context.Context, symbol string) (Money, error) {
		calls++
		return NO(1), nil
	})
	c := newTestComposer(&fakeRepo{}, oracle, "2025-01-05")
	report, ok, err := c.Report(context.Background(), "missing", Window{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if ok || report != nil {
		t.Errorf("Report() = %v, %v, want nil, false", report, ok)
	}
	if calls != 0 {
		t.Errorf("oracle called %d times, want 0", calls)
	}
}

func TestComposer_Report(t *testing.T) {
	repo := &fakeRepo{
		portfolios: map[string]Portfolio{"p1": {ID: "p1", Name: "Main", CreatedDate: day("2025-01-01")}},
		holdings: []Holding{
			holding("h1", "AAPL",
				buy("2025-01-01", 10, 100),
				buy("2025-01-02", 5, 110),
				sell("2025-01-03", 8, 120),
				sell("2025-01-04", 4, 130),
			),
			holding("h2", "MSFT",
				buy("2025-01-02", 1, 200),
			),
		},
	}
	c := newTestComposer(repo, fixedPrices(map[string]float64{"AAPL": 140, "MSFT": 180}), "2025-01-04")

	report, ok, err := c.Report(context.Background(), "p1", Window{})
	if err != nil || !ok {
		t.Fatalf("Report() = _, %v, %v, want ok", ok, err)
	}

	want := []HoldingPerformance{
		{
			HoldingID:    "h1",
			Symbol:       "AAPL",
			Name:         "AAPL Inc.",
			Quantity:     Q(3),
			AverageCost:  USD(110),
			Price:        USD(140),
			CurrentValue: USD(420),
			Realized:     USD(260),
			Unrealized:   USD(90),
			Currency:     "USD",
		},
		{
			HoldingID:    "h2",
			Symbol:       "MSFT",
			Name:         "MSFT Inc.",
			Quantity:     Q(1),
			AverageCost:  USD(200),
			Price:        USD(180),
			CurrentValue: USD(180),
			Realized:     USD(0),
			Unrealized:   USD(-20),
			Currency:     "USD",
		},
	}
	if diff := cmp.Diff(want, report.Holdings, valueComparers); diff != "" {
		t.Errorf("Holdings mismatch (-want +got):\n%s", diff)
	}
	if !report.TotalValue.Equal(USD(600)) {
		t.Errorf("TotalValue = %v, want 600", report.TotalValue)
	}
	if !report.TotalRealized.Equal(USD(260)) {
		t.Errorf("TotalRealized = %v, want 260", report.TotalRealized)
	}
	if !report.TotalUnrealized.Equal(USD(70)) {
		t.Errorf("TotalUnrealized = %v, want 70", report.TotalUnrealized)
	}
	wantAlloc := map[string]Percent{"AAPL": P(70), "MSFT": P(30)}
	if diff := cmp.Diff(wantAlloc, report.Allocation, valueComparers); diff != "" {
		t.Errorf("Allocation mismatch (-want +got):\n%s", diff)
	}
	// AAPL 10, 15, 7, 3 shares; MSFT 0, 1, 1, 1 share.
	wantSeries := []ValuePoint{
		{Date: date.New(2025, 1, 1), Value: USD(1400)},
		{Date: date.New(2025, 1, 2), Value: USD(2280)},
		{Date: date.New(2025, 1, 3), Value: USD(1160)},
		{Date: date.New(2025, 1, 4), Value: USD(600)},
	}
	if diff := cmp.Diff(wantSeries, report.Series, valueComparers); diff != "" {
		t.Errorf("Series mismatch (-want +got):\n%s", diff)
	}
}

func TestComposer_AllocationSumsTo100(t *testing.T) {
	repo := &fakeRepo{
		portfolios: map[string]Portfolio{"p1": {ID: "p1", Name: "Main", CreatedDate: day("2025-01-01")}},
		holdings: []Holding{
			holding("h1", "AAPL", buy("2025-01-01", 3, 100)),
			holding("h2", "MSFT", buy("2025-01-01", 7, 100)),
			holding("h3", "GOOGL", buy("2025-01-01", 11, 100)),
			holding("h4", "TSLA", buy("2025-01-01", 1, 100), sell("2025-01-02", 1, 100)),
		},
	}
	c := newTestComposer(repo, NewMockOracle(5, 42), "2025-01-03")
	report, _, err := c.Report(context.Background(), "p1", Window{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	var sum Percent
	for _, p := range report.Allocation {
		sum = sum.Add(p)
	}
	if !sum.Equal(P(100)) {
		t.Errorf("sum(Allocation) = %v, want 100", sum)
	}
	if got := report.Allocation["TSLA"]; !got.Equal(P(0)) {
		t.Errorf("Allocation[TSLA] = %v, want 0", got)
	}
	// prices are fetched once: the last day equals the totals.
	if last := report.Series[len(report.Series)-1].Value; !last.Equal(report.TotalValue) {
		t.Errorf("last series value = %v, want TotalValue %v", last, report.TotalValue)
	}
}

func TestComposer_SharedSymbol(t *testing.T) {
	var calls atomic.Int32
	oracle := OracleFunc(func(ctx context.Context, symbol string) (Money, error) {
		calls.Add(1)
		return NO(10), nil
	})
	repo := &fakeRepo{
		portfolios: map[string]Portfolio{"p1": {ID: "p1", Name: "Main", CreatedDate: day("2025-01-01")}},
		holdings: []Holding{
			holding("h1", "AAPL", buy("2025-01-01", 1, 5)),
			holding("h2", "AAPL", buy("2025-01-01", 3, 5)),
		},
	}
	c := newTestComposer(repo, oracle, "2025-01-31")
	report, _, err := c.Report(context.Background(), "p1", Window{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if diff := cmp.Diff(map[string]Percent{"AAPL": P(100)}, report.Allocation, valueComparers); diff != "" {
		t.Errorf("Allocation mismatch (-want +got):\n%s", diff)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("oracle called %d times, want 1", got)
	}
}

func TestComposer_Window(t *testing.T) {
	repo := &fakeRepo{portfolios: map[string]Portfolio{"p1": {ID: "p1", Name: "Main", CreatedDate: day("2025-01-01")}}}
	c := newTestComposer(repo, fixedPrices(nil), "2025-06-30")

	testCases := []struct {
		name    string
		window  Window
		wantLen int
	}{
		{name: "defaults", window: Window{}, wantLen: 181},
		{name: "explicit", window: Window{Start: date.New(2025, 2, 1), End: date.New(2025, 2, 28)}, wantLen: 28},
		{name: "start only", window: Window{Start: date.New(2025, 6, 21)}, wantLen: 10},
		{name: "end only", window: Window{End: date.New(2025, 1, 10)}, wantLen: 10},
		{name: "start after end", window: Window{Start: date.New(2025, 3, 2), End: date.New(2025, 3, 1)}, wantLen: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			report, _, err := c.Report(context.Background(), "p1", tc.window)
			if err != nil {
				t.Fatalf("Report() error = %v", err)
			}
			if len(report.Series) != tc.wantLen {
				t.Errorf("len(Series) = %d, want %d", len(report.Series), tc.wantLen)
			}
		})
	}
}

func TestComposer_WindowTooLong(t *testing.T) {
	repo := &fakeRepo{portfolios: map[string]Portfolio{"p1": {ID: "p1", Name: "Main", CreatedDate: day("2025-01-01")}}}
	c := newTestComposer(repo, fixedPrices(nil), "2025-06-30")

	if _, _, err := c.Report(context.Background(), "p1", Window{Start: date.New(1, 1, 1)}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Report(0001-01-01..) error = %v, want ErrInvalid", err)
	}
	if _, _, err := c.Report(context.Background(), "p1", Window{End: date.New(9999, 12, 31)}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Report(..9999-12-31) error = %v, want ErrInvalid", err)
	}

	c.MaxDays = 10
	if _, _, err := c.Report(context.Background(), "p1", Window{Start: date.New(2025, 6, 21)}); err != nil {
		t.Errorf("Report() of 10 days error = %v", err)
	}
	if _, _, err := c.Report(context.Background(), "p1", Window{Start: date.New(2025, 6, 20)}); !errors.Is(err, ErrInvalid) {
		t.Errorf("Report() of 11 days error = %v, want ErrInvalid", err)
	}
	// an empty window is never too long
	if _, _, err := c.Report(context.Background(), "p1", Window{Start: date.New(2025, 7, 1), End: date.New(2025, 1, 1)}); err != nil {
		t.Errorf("Report() of an empty window error = %v", err)
	}
}

func TestComposer_OracleErrors(t *testing.T) {
	repo := &fakeRepo{
		portfolios: map[string]Portfolio{"p1": {ID: "p1", Name: "Main", CreatedDate: day("2025-01-01")}},
		holdings:   []Holding{holding("h1", "XYZ", buy("2025-01-01", 2, 5))},
	}

	// unknown symbols fall back to the default price.
	fallback := FallbackOracle{Oracle: NewMockOracle(0, 0), Default: NO(100)}
	report, _, err := newTestComposer(repo, fallback, "2025-01-01").Report(context.Background(), "p1", Window{})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !report.TotalValue.Equal(USD(200)) {
		t.Errorf("TotalValue = %v, want 200", report.TotalValue)
	}

	// other errors abort the report.
	boom := errors.New("boom")
	failing := FallbackOracle{Oracle: OracleFunc(func(ctx context.Context, symbol string) (Money, error) { return Money{}, boom }), Default: NO(100)}
	_, ok, err := newTestComposer(repo, failing, "2025-01-01").Report(context.Background(), "p1", Window{})
	if !errors.Is(err, boom) || !ok {
		t.Errorf("Report() = _, %v, %v, want true, %v", ok, err, boom)
	}
}

func TestComposer_Cancelled(t *testing.T) {
	repo := &fakeRepo{
		portfolios: map[string]Portfolio{"p1": {ID: "p1", Name: "Main", CreatedDate: day("2020-01-01")}},
		holdings:   []Holding{holding("h1", "AAPL", buy("2020-01-01", 2, 5))},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newTestComposer(repo, NewMockOracle(0, 0), "2025-01-01").Report(ctx, "p1", Window{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Report() error = %v, want %v", err, context.Canceled)
	}
}
