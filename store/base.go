// Package store persists the entity graph. Each model turns one root entity
// into rows and back, and every write runs in a single transaction.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jasonknight/space-mmo-sub002/result"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Base owns the connection shared by the models of one service process.
type Base struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Base.
type Option func(*Base)

// WithClock replaces time.Now, used to derive Player.Over13.
func WithClock(now func() time.Time) Option {
	return func(b *Base) { b.now = now }
}

// NewBase wraps db.
func NewBase(db *gorm.DB, logger *zap.Logger, opts ...Option) *Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Base{db: db, logger: logger, now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// DB returns a session bound to ctx for read paths.
func (b *Base) DB(ctx context.Context) *gorm.DB { return b.db.WithContext(ctx) }

// InTx runs fn inside BEGIN/COMMIT. Any error or panic from fn rolls the
// transaction back and is surfaced to the caller.
func (b *Base) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.db.WithContext(ctx).Transaction(fn)
}

// Close closes the underlying pool.
func (b *Base) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// write runs fn in a transaction and reduces the outcome to results. msgs
// runs only after commit; callers use it to publish ids assigned inside fn
// back onto the caller's entity so a rollback leaves that entity untouched.
func (b *Base) write(ctx context.Context, op string, fallback result.ErrorCode, fn func(tx *gorm.DB) error, msgs func() []string) []result.Result {
	if err := b.InTx(ctx, fn); err != nil {
		r := classify(err, fallback)
		b.logFailure(op, r, err)
		return []result.Result{r}
	}
	out := make([]result.Result, 0, 1)
	for _, m := range msgs() {
		out = append(out, result.OK(m))
	}
	b.logger.Debug("store write", zap.String("op", op), zap.Int("results", len(out)))
	return out
}

func (b *Base) logFailure(op string, r result.Result, err error) {
	var re *result.Error
	if errors.As(err, &re) {
		b.logger.Warn("store operation failed",
			zap.String("op", op), zap.String("code", string(r.Code())), zap.String("message", r.Message))
		return
	}
	b.logger.Error("store operation failed",
		zap.String("op", op), zap.String("code", string(r.Code())), zap.Error(err))
}

// classify maps err onto a FAILURE result.
func classify(err error, fallback result.ErrorCode) result.Result {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return result.Fail(result.DBRecordNotFound, err.Error())
	}
	return result.FromError(err, fallback)
}

func invalid(format string, args ...interface{}) error {
	return result.Errorf(result.DBInvalidData, format, args...)
}

func notFound(kind string, id int64) error {
	return result.Errorf(result.DBRecordNotFound, "%s %d not found", kind, id)
}

// dbErr wraps a driver error with a code and context.
func dbErr(code result.ErrorCode, err error, format string, args ...interface{}) error {
	return &result.Error{Code: code, Message: fmt.Sprintf(format, args...) + ": " + err.Error()}
}

// requireRow fails with DB_RECORD_NOT_FOUND unless table has a row with id.
func requireRow(tx *gorm.DB, table, kind string, id int64) error {
	var n int64
	if err := tx.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return dbErr(result.DBQueryFailed, err, "count %s %d", kind, id)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

// deleteByID deletes one row and fails with DB_DELETE_FAILED when nothing
// was removed.
func deleteByID(tx *gorm.DB, table, kind string, id int64, row interface{}) error {
	res := tx.Table(table).Where("id = ?", id).Delete(row)
	if res.Error != nil {
		return dbErr(result.DBDeleteFailed, res.Error, "delete %s %d", kind, id)
	}
	if res.RowsAffected == 0 {
		return result.Errorf(result.DBDeleteFailed, "delete %s %d: no rows affected", kind, id)
	}
	return nil
}

// Page bounds a search.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) validate() error {
	if p.Page < 0 {
		return invalid("page %d must not be negative", p.Page)
	}
	if p.PerPage <= 0 {
		return invalid("per_page %d must be positive", p.PerPage)
	}
	return nil
}

// pageIDs counts the rows matched by scope and returns one page of their ids
// ordered by id.
func (b *Base) pageIDs(ctx context.Context, table string, p Page, scope func(*gorm.DB) *gorm.DB) ([]int64, int64, error) {
	if err := p.validate(); err != nil {
		return nil, 0, err
	}
	q := scope(b.DB(ctx).Table(table))
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbErr(result.DBQueryFailed, err, "count %s", table)
	}
	var ids []int64
	err := scope(b.DB(ctx).Table(table)).
		Order("id").
		Offset(p.Page*p.PerPage).
		Limit(p.PerPage).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, 0, dbErr(result.DBQueryFailed, err, "page %s", table)
	}
	return ids, total, nil
}

// likeEscaper quotes LIKE wildcards with '!', which both dialects accept
// as a single-character ESCAPE.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likeScope matches search as a literal substring of any of columns.
func likeScope(search string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if search == "" {
			return q
		}
		pattern := "%" + likeEscaper.Replace(search) + "%"
		cond := q.Session(&gorm.Session{NewDB: true})
		for i, c := range columns {
			if i == 0 {
				cond = cond.Where(c+" LIKE ? ESCAPE '!'", pattern)
			} else {
				cond = cond.Or(c+" LIKE ? ESCAPE '!'", pattern)
			}
		}
		return q.Where(cond)
	}
}

func allRows(q *gorm.DB) *gorm.DB { return q }

func idString(id *int64) string {
	if id == nil {
		return "<nil>"
	}
	return strconv.FormatInt(*id, 10)
}

// searchRows runs a paged search and loads each hit with load.
func searchRows[E any](ctx context.Context, b *Base, op, table string, p Page, scope func(*gorm.DB) *gorm.DB, load func(tx *gorm.DB, id int64) (E, error)) (result.Result, []E, int64) {
	ids, total, err := b.pageIDs(ctx, table, p, scope)
	if err != nil {
		r := classify(err, result.DBQueryFailed)
		b.logFailure(op, r, err)
		return r, nil, 0
	}
	out := make([]E, 0, len(ids))
	tx := b.DB(ctx)
	for _, id := range ids {
		e, err := load(tx, id)
		if err != nil {
			r := classify(err, result.DBQueryFailed)
			b.logFailure(op, r, err)
			return r, nil, 0
		}
		out = append(out, e)
	}
	return result.OKf("found %d of %d", len(out), total), out, total
}

// load runs a single-entity read.
func load[E any](ctx context.Context, b *Base, op string, id int64, fn func(tx *gorm.DB, id int64) (E, error)) (result.Result, E) {
	e, err := fn(b.DB(ctx), id)
	if err != nil {
		var zero E
		r := classify(err, result.DBQueryFailed)
		b.logFailure(op, r, err)
		return r, zero
	}
	return result.OKf("loaded %d", id), e
}
