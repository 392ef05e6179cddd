package runner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	healthsvc "signal_bot/internal/modules/health/service"
	"signal_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeTerminal — управляемый терминал для конвейера.
type fakeTerminal struct {
	mu sync.Mutex

	account  models.AccountSnapshot
	accErr   error
	spec     models.InstrumentSpec
	quote    models.Quote
	loginErr error

	// accounts по порядку вызовов AccountInfo; после исчерпания — account
	accountSeq []models.AccountSnapshot

	// rejectIdx — счётчик SubmitOrder (с 1), которые отбиваются
	rejectIdx map[int]bool

	logins   int
	submits  []models.OrderRequest
	accCalls int
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{
		account: models.AccountSnapshot{Login: 123, Balance: 10000, Equity: 9900, IsDemo: true},
		spec: models.InstrumentSpec{
			Symbol:         "XAUUSD",
			PipSize:        0.01,
			PipValuePerLot: 1.0,
			MinLot:         0.01,
			MaxLot:         100,
			LotStep:        0.01,
			PriceDigits:    2,
		},
		quote:     models.Quote{Symbol: "XAUUSD", Bid: 2329.50, Ask: 2329.70},
		rejectIdx: map[int]bool{},
	}
}

func (f *fakeTerminal) Login(ctx context.Context, login int64, password, server string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	return f.loginErr
}

func (f *fakeTerminal) AccountInfo(ctx context.Context) (models.AccountSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accCalls++
	if f.accErr != nil {
		return models.AccountSnapshot{}, f.accErr
	}
	if len(f.accountSeq) > 0 {
		acc := f.accountSeq[0]
		f.accountSeq = f.accountSeq[1:]
		return acc, nil
	}
	return f.account, nil
}

func (f *fakeTerminal) SymbolInfo(ctx context.Context, symbol string) (models.InstrumentSpec, error) {
	return f.spec, nil
}

func (f *fakeTerminal) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	return f.quote, nil
}

func (f *fakeTerminal) SubmitOrder(ctx context.Context, r models.OrderRequest) (models.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, r)
	if f.rejectIdx[len(f.submits)] {
		return models.OrderAck{}, fmt.Errorf("retcode 10019: no money")
	}
	ret := models.RetCodePlaced
	if r.Kind == models.OrderMarket {
		ret = models.RetCodeDone
	}
	return models.OrderAck{Ticket: fmt.Sprintf("T%d", len(f.submits)), RetCode: ret, Price: r.Price}, nil
}

func (f *fakeTerminal) LockSession() func() { return func() {} }

// fakeExtractor отдаёт ответы по очереди; err в элементе — сбой экстракции.
type fakeExtractor struct {
	mu    sync.Mutex
	seq   []extractStep
	calls int
}

type extractStep struct {
	sig *models.ExtractedSignal
	err error
}

func (f *fakeExtractor) Extract(ctx context.Context, text string, dialect models.Dialect) (*models.ExtractedSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.seq) == 0 {
		return nil, fmt.Errorf("unexpected extract call %d", f.calls)
	}
	step := f.seq[0]
	if len(f.seq) > 1 {
		f.seq = f.seq[1:]
	}
	return step.sig, step.err
}

type fakeJournal struct {
	mu   sync.Mutex
	outs []models.SignalOutcome
}

func (f *fakeJournal) Append(ctx context.Context, out models.SignalOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outs = append(f.outs, out)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Sendf(ctx context.Context, format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, fmt.Sprintf(format, args...))
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Accounts: map[string]config.AccountCreds{
			"demo": {Login: 123, Password: "pw", Server: "Broker-Demo"},
		},
		AccountRole:           "demo",
		RequireDemo:           true,
		TotalRiskPerSignal:    300,
		MaxAccountRiskPct:     7,
		MaxAttempts:           3,
		RetryDelay:            time.Millisecond,
		OrderPause:            time.Millisecond,
		MarketTolerancePoints: 20,
	}
	return cfg
}

func goodExtract() *models.ExtractedSignal {
	return &models.ExtractedSignal{
		Symbol:      "XAUUSD",
		Sens:        models.Buy,
		SL:          2314.90,
		EntryPrices: []float64{2329.79},
		TPs:         []any{2350.00, 2375.00, "open"},
	}
}

func rawStandard() models.RawSignal {
	return models.RawSignal{
		MessageID: 1,
		ChannelID: -100123,
		Dialect:   models.DialectStandard,
		Text:      "GOLD BUY 2329.79 SL 2314.90 TP 2350 2375 OPEN",
		At:        time.Now(),
	}
}

func newTestRunner(term *fakeTerminal, ex *fakeExtractor) (*Runner, *fakeJournal, *fakeNotifier) {
	j := &fakeJournal{}
	n := &fakeNotifier{}
	r := New(testConfig(), term, ex, j, n, healthsvc.NewState())
	return r, j, n
}

func TestProcessHappyPath(t *testing.T) {
	term := newFakeTerminal()
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	assert.Equal(t, models.ReasonNone, out.Reason)
	assert.Equal(t, 1, out.AttemptsUsed)
	assert.Equal(t, "XAUUSD", out.Symbol)
	require.Len(t, out.Results, 3)
	assert.NotEmpty(t, out.ID)

	// вход 2329.80 при ask 2329.70: в пределах допуска 20 шагов → market
	require.Len(t, term.submits, 3)
	for _, req := range term.submits {
		assert.Equal(t, models.OrderMarket, req.Kind)
		assert.Equal(t, "ch:-100123", req.Comment)
		assert.Equal(t, 2, req.Digits)
	}
	assert.Equal(t, models.StatusFilled, out.Results[0].Status)
	assert.Equal(t, 1, ex.calls)
}

func TestProcessPendingOrders(t *testing.T) {
	term := newFakeTerminal()
	// рынок далеко снизу → вход выше ask за пределами допуска → buy stop
	term.quote = models.Quote{Symbol: "XAUUSD", Bid: 2320.00, Ask: 2320.20}
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	require.Len(t, out.Results, 3)
	for _, req := range term.submits {
		assert.Equal(t, models.OrderStop, req.Kind)
		assert.InDelta(t, 2329.80, req.Price, 1e-9)
	}
	for _, res := range out.Results {
		assert.Equal(t, models.StatusPending, res.Status)
	}
}

func TestProcessPartialFailureIsTerminal(t *testing.T) {
	term := newFakeTerminal()
	term.rejectIdx[2] = true
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	// 2 из 3 принято — терминально, без ретрая
	assert.Equal(t, models.ReasonNone, out.Reason)
	assert.Equal(t, 1, out.AttemptsUsed)
	require.Len(t, out.Results, 2)
	assert.Equal(t, 1, out.Results[0].OrderIndex)
	assert.Equal(t, 3, out.Results[1].OrderIndex)
	assert.Equal(t, 1, ex.calls)
}

func TestProcessAllRejectedRetriesAndExhausts(t *testing.T) {
	term := newFakeTerminal()
	for i := 1; i <= 9; i++ {
		term.rejectIdx[i] = true
	}
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	assert.Equal(t, models.ReasonAttemptsExhausted, out.Reason)
	assert.Equal(t, 3, out.AttemptsUsed)
	assert.Empty(t, out.Results)
	assert.Equal(t, 3, ex.calls)
	assert.Len(t, term.submits, 9)
}

func TestProcessRetriesExtractionFailure(t *testing.T) {
	term := newFakeTerminal()
	ex := &fakeExtractor{seq: []extractStep{
		{err: fmt.Errorf("no json object in completion")},
		{sig: goodExtract()},
	}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	assert.Equal(t, models.ReasonNone, out.Reason)
	assert.Equal(t, 2, out.AttemptsUsed)
	require.Len(t, out.Results, 3)
	assert.Equal(t, 2, ex.calls)
}

func TestProcessValidationFailureExhausts(t *testing.T) {
	term := newFakeTerminal()
	bad := goodExtract()
	bad.SL = 2350.00 // стоп выше входа при BUY
	ex := &fakeExtractor{seq: []extractStep{{sig: bad}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	assert.Equal(t, models.ReasonValidationFailed, out.Reason)
	assert.Equal(t, 3, out.AttemptsUsed)
	assert.Empty(t, out.Results)
	assert.Empty(t, term.submits)
}

func TestProcessRiskCeiling(t *testing.T) {
	term := newFakeTerminal()
	// просадка 8% > потолка 7%
	term.account = models.AccountSnapshot{Login: 123, Balance: 10000, Equity: 9200, IsDemo: true}
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	assert.Equal(t, models.ReasonRiskCeiling, out.Reason)
	assert.Empty(t, out.Results)
	assert.Empty(t, term.submits)
}

func TestProcessAccountMismatchIsFatal(t *testing.T) {
	term := newFakeTerminal()
	term.account = models.AccountSnapshot{Login: 999, Balance: 10000, Equity: 9900, IsDemo: true}
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	assert.Equal(t, models.ReasonAccountIdentity, out.Reason)
	assert.Zero(t, out.AttemptsUsed)
	assert.Equal(t, 0, ex.calls)
	// один принудительный реконнект был
	assert.Equal(t, 1, term.logins)
}

func TestProcessAccountRecoversAfterReconnect(t *testing.T) {
	term := newFakeTerminal()
	term.accountSeq = []models.AccountSnapshot{
		{Login: 999, Balance: 10000, Equity: 9900, IsDemo: true}, // до реконнекта
	}
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	assert.Equal(t, models.ReasonNone, out.Reason)
	require.Len(t, out.Results, 3)
	assert.Equal(t, 1, term.logins)
}

func TestProcessLiveAccountRejectedWhenDemoRequired(t *testing.T) {
	term := newFakeTerminal()
	term.account = models.AccountSnapshot{Login: 123, Balance: 10000, Equity: 9900, IsDemo: false}
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	r, _, _ := newTestRunner(term, ex)

	out := r.Process(context.Background(), rawStandard())

	assert.Equal(t, models.ReasonAccountIdentity, out.Reason)
	assert.Empty(t, term.submits)
}

func TestOnSignalJournalsAndNotifies(t *testing.T) {
	term := newFakeTerminal()
	ex := &fakeExtractor{seq: []extractStep{{sig: goodExtract()}}}
	j := &fakeJournal{}
	n := &fakeNotifier{}
	state := healthsvc.NewState()
	r := New(testConfig(), term, ex, j, n, state)

	r.OnSignal(context.Background(), rawStandard())

	require.Eventually(t, func() bool {
		j.mu.Lock()
		defer j.mu.Unlock()
		return len(j.outs) == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(1), state.SignalsSeen())
	assert.Equal(t, int64(1), state.SignalsDone())

	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "3/3")
}

func TestChooseOrderKind(t *testing.T) {
	q := models.Quote{Bid: 2329.50, Ask: 2329.70}
	const tol = 0.20

	intent := func(dir models.Direction, entry float64) models.OrderIntent {
		return models.OrderIntent{Direction: dir, EntryPrice: entry}
	}

	cases := []struct {
		name  string
		it    models.OrderIntent
		kind  models.OrderKind
		price float64
	}{
		{"buy near ask is market", intent(models.Buy, 2329.80), models.OrderMarket, 0},
		{"buy far above ask is stop", intent(models.Buy, 2335.00), models.OrderStop, 2335.00},
		{"buy far below ask is limit", intent(models.Buy, 2320.00), models.OrderLimit, 2320.00},
		{"sell near bid is market", intent(models.Sell, 2329.40), models.OrderMarket, 0},
		{"sell far above bid is limit", intent(models.Sell, 2335.00), models.OrderLimit, 2335.00},
		{"sell far below bid is stop", intent(models.Sell, 2320.00), models.OrderStop, 2320.00},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, price := chooseOrderKind(tc.it, q, tol)
			assert.Equal(t, tc.kind, kind)
			assert.InDelta(t, tc.price, price, 1e-9)
		})
	}
}
