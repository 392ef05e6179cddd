package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"
)

// Outcomes — журнал обработанных сигналов: одна запись на сигнал плюс
// строки по принятым ордерам, в одной транзакции.
type Outcomes struct {
	db *db.PgTxManager
}

func NewOutcomes(txm *db.PgTxManager) *Outcomes {
	return &Outcomes{db: txm}
}

func (o *Outcomes) Append(ctx context.Context, out models.SignalOutcome) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.AppendOutcome: %w", err)
		}
	}()

	return o.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO signal_outcomes (id, dialect, symbol, attempts, reason, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			out.ID, out.Dialect.String(), out.Symbol, out.AttemptsUsed, string(out.Reason), out.FinishedAt,
		)
		if err != nil {
			return err
		}
		for _, res := range out.Results {
			_, err := tx.Exec(ctxTx, `
				INSERT INTO order_results (outcome_id, order_index, ticket, price, lot, status, at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				out.ID, res.OrderIndex, res.BrokerOrderID, res.ExecutionPrice, res.LotSize, string(res.Status), res.At,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Recent — последние исходы с числом принятых ордеров, для API.
func (o *Outcomes) Recent(ctx context.Context, limit int) (items []models.SignalOutcome, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.RecentOutcomes: %w", err)
		}
	}()
	if limit <= 0 {
		limit = 50
	}

	rows, err := o.db.Conn().Query(ctx, `
		SELECT o.id, o.dialect, o.symbol, o.attempts, o.reason, o.finished_at,
		       r.order_index, r.ticket, r.price, r.lot, r.status, r.at
		FROM signal_outcomes o
		LEFT JOIN order_results r ON r.outcome_id = o.id
		ORDER BY o.finished_at DESC, r.order_index
		LIMIT $1`, limit*3,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[string]int{}
	for rows.Next() {
		var (
			out     models.SignalOutcome
			dialect string
			reason  string
			res     models.OrderResult
			idx     *int
			ticket  *string
			price   *float64
			lot     *float64
			status  *string
			at      *time.Time
		)
		if err := rows.Scan(
			&out.ID, &dialect, &out.Symbol, &out.AttemptsUsed, &reason, &out.FinishedAt,
			&idx, &ticket, &price, &lot, &status, &at,
		); err != nil {
			return nil, err
		}

		i, seen := byID[out.ID]
		if !seen {
			out.Dialect = dialectFromString(dialect)
			out.Reason = models.AbortReason(reason)
			byID[out.ID] = len(items)
			items = append(items, out)
			i = len(items) - 1
		}
		if idx != nil {
			res.OrderIndex = *idx
			res.BrokerOrderID = deref(ticket)
			res.ExecutionPrice = derefF(price)
			res.LotSize = derefF(lot)
			res.Status = models.OrderStatus(deref(status))
			if at != nil {
				res.At = *at
			}
			items[i].Results = append(items[i].Results, res)
		}
	}
	return items, rows.Err()
}

func dialectFromString(s string) models.Dialect {
	if s == "range" {
		return models.DialectRange
	}
	return models.DialectStandard
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
