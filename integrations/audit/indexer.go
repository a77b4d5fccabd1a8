package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ajochain/core/events"
	"ajochain/core/types"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultLimit = 100
	maxLimit     = 1000
)

// accountKeys lists the attributes that identify the acting or affected
// account, in order of preference.
var accountKeys = []string{"contributor", "recipient", "participant", "requester", "account", "to", "from", "creator"}

// Open connects to the audit database and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("audit: dsn required")
	}
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("audit: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", driver, err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return db, nil
}

// Indexer persists committed ledger events. It is attached to the node as an
// event sink, so it only ever observes events whose state change committed.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
	nowFn  func() time.Time

	mu  sync.Mutex
	seq uint64
}

// NewIndexer resumes numbering after the highest stored sequence.
func NewIndexer(db *gorm.DB, logger *slog.Logger) (*Indexer, error) {
	if db == nil {
		return nil, errors.New("audit: database required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	var last uint64
	if err := db.Model(&Record{}).Select("COALESCE(MAX(sequence), 0)").Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("audit: load sequence: %w", err)
	}
	return &Indexer{
		db:     db,
		logger: logger.With("component", "audit"),
		nowFn:  time.Now,
		seq:    last,
	}, nil
}

// Emit implements events.Emitter. Storage failures are logged; the ledger
// has already committed and is the source of truth.
func (i *Indexer) Emit(evt events.Event) {
	payload := events.Payload(evt)
	if i == nil || payload == nil {
		return
	}
	if err := i.Record(context.Background(), payload); err != nil {
		i.logger.Error("audit record failed", "type", payload.Type, "error", err)
	}
}

// Record stores a single event payload.
func (i *Indexer) Record(ctx context.Context, evt *types.Event) error {
	attrs, err := json.Marshal(evt.Attributes)
	if err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	record := Record{
		ID:         uuid.New(),
		Sequence:   i.seq + 1,
		Type:       evt.Type,
		PlanID:     parsePlanID(evt.Attribute("planId")),
		Account:    accountOf(evt),
		Asset:      evt.Attribute("asset"),
		Amount:     amountOf(evt),
		Attributes: string(attrs),
		CreatedAt:  i.nowFn().UTC(),
	}
	if err := i.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	i.seq = record.Sequence
	return nil
}

// Filter narrows a history query. Zero values match everything.
type Filter struct {
	Type          string
	PlanID        *uint64
	Account       string
	AfterSequence uint64
	Limit         int
}

// Records returns stored events in commit order.
func (i *Indexer) Records(ctx context.Context, filter Filter) ([]Record, error) {
	query := i.db.WithContext(ctx).Model(&Record{}).Order("sequence ASC")
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.PlanID != nil {
		query = query.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.Account != "" {
		query = query.Where("account = ?", filter.Account)
	}
	if filter.AfterSequence > 0 {
		query = query.Where("sequence > ?", filter.AfterSequence)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	var out []Record
	if err := query.Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Event reconstructs the payload of a stored record.
func (r Record) Event() (*types.Event, error) {
	attrs := make(map[string]string)
	if r.Attributes != "" {
		if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("audit: decode attributes of %d: %w", r.Sequence, err)
		}
	}
	return &types.Event{Type: r.Type, Attributes: attrs}, nil
}

func parsePlanID(raw string) *uint64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func accountOf(evt *types.Event) string {
	for _, key := range accountKeys {
		if v := evt.Attribute(key); v != "" {
			return v
		}
	}
	return ""
}

func amountOf(evt *types.Event) string {
	for _, key := range []string{"amount", "net", "shortfall"} {
		if v := evt.Attribute(key); v != "" {
			return v
		}
	}
	return ""
}
