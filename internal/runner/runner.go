package runner

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	healthsvc "signal_bot/internal/modules/health/service"
	"signal_bot/pkg/logger"
)

// Terminal — то, что пайплайну нужно от торгового терминала. Реализуется
// клиентом шлюза MT5; в тестах — фейком.
type Terminal interface {
	Login(ctx context.Context, login int64, password, server string) error
	AccountInfo(ctx context.Context) (models.AccountSnapshot, error)
	SymbolInfo(ctx context.Context, symbol string) (models.InstrumentSpec, error)
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	SubmitOrder(ctx context.Context, r models.OrderRequest) (models.OrderAck, error)
	// LockSession сериализует доступ к единственной сессии терминала:
	// сверка счёта и три ордера одного сигнала не должны переплетаться
	// с отправками из параллельного сигнала.
	LockSession() func()
}

type Extractor interface {
	Extract(ctx context.Context, text string, dialect models.Dialect) (*models.ExtractedSignal, error)
}

type Journal interface {
	Append(ctx context.Context, out models.SignalOutcome) error
}

type Notifier interface {
	Sendf(ctx context.Context, format string, args ...any)
}

// Runner гонит каждый входящий сигнал через конвейер:
// classify (уже сделан слушателем) → extract → normalize → validate →
// risk guard → size → verify account → submit → журнал.
type Runner struct {
	cfg     *config.Config
	term    Terminal
	ex      Extractor
	journal Journal
	n       Notifier
	state   *healthsvc.State

	// пейсер отправки ордеров: венью не любит очереди из ордеров подряд
	limiter *rate.Limiter

	mu      sync.Mutex
	entropy *rand.Rand
}

func New(
	cfg *config.Config,
	term Terminal,
	ex Extractor,
	journal Journal,
	n Notifier,
	state *healthsvc.State,
) *Runner {
	pause := cfg.OrderPause
	if pause <= 0 {
		pause = 500 * time.Millisecond
	}
	return &Runner{
		cfg:     cfg,
		term:    term,
		ex:      ex,
		journal: journal,
		n:       n,
		state:   state,
		limiter: rate.NewLimiter(rate.Every(pause), 1),
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnSignal — вход из слушателя каналов. Каждый сигнал — свой конвейер;
// общая сессия терминала сериализуется внутри.
func (r *Runner) OnSignal(ctx context.Context, raw models.RawSignal) {
	r.state.SignalSeen()
	go func() {
		out := r.Process(ctx, raw)
		r.state.SignalDone()

		if err := r.journal.Append(ctx, out); err != nil {
			logger.Error("journal append %s: %v", out.ID, err)
		}
		r.notifyOutcome(ctx, raw, out)
	}()
}

func (r *Runner) newOutcomeID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
}

func (r *Runner) notifyOutcome(ctx context.Context, raw models.RawSignal, out models.SignalOutcome) {
	switch {
	case len(out.Results) > 0:
		r.n.Sendf(ctx, "✅ [%s] %s: %d/3 ордеров принято, попыток %d",
			out.Dialect, out.Symbol, len(out.Results), out.AttemptsUsed)
	case out.Reason == models.ReasonAccountIdentity:
		r.n.Sendf(ctx, "🛑 [%s] сигнал отброшен: не тот счёт (канал %d)", out.Dialect, raw.ChannelID)
	default:
		r.n.Sendf(ctx, "⛔️ [%s] %s: без ордеров (%s), попыток %d",
			out.Dialect, out.Symbol, out.Reason, out.AttemptsUsed)
	}
}
