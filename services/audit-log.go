package services

import (
	"context"
	"sync"
	"time"

	"mikhailche/lurelog/lib/errors"
	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AuditContentRejected = "content.rejected"
	AuditUserRegistered  = "user.registered"
	AuditRoleChanged     = "user.role_changed"
	AuditTripShared      = "trip.shared"
	AuditTripDeleted     = "trip.deleted"
	AuditGearDeleted     = "gear.deleted"
	AuditSpeciesAdded    = "species.added"
)

// AuditLog writes audit entries to the store in the background.
type AuditLog struct {
	store   auditStore
	log     *zap.Logger
	entries chan repository.AuditEntry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	enqueueTimeout time.Duration
	writeTimeout   time.Duration
	retryDelay     time.Duration
	now            func() time.Time
}

func NewAuditLog(store auditStore, log *zap.Logger) *AuditLog {
	return newAuditLog(store, log, 64, time.Second)
}

func newAuditLog(store auditStore, log *zap.Logger, capacity int, retryDelay time.Duration) *AuditLog {
	l := &AuditLog{
		store:          store,
		log:            log,
		entries:        make(chan repository.AuditEntry, capacity),
		done:           make(chan struct{}),
		enqueueTimeout: time.Second,
		writeTimeout:   2 * time.Second,
		retryDelay:     retryDelay,
		now:            time.Now,
	}
	go l.runWorker()
	return l
}

// Record queues an entry. It gives up after enqueueTimeout when the queue is full.
func (l *AuditLog) Record(ctx context.Context, actorID, kind, subject, detail string) {
	ctx, span := tracer.Open(ctx, tracer.Named("AuditLog::Record"))
	defer span.Close()
	entry := repository.AuditEntry{
		ID:      uuid.NewString(),
		At:      l.now().UTC().Truncate(time.Millisecond),
		ActorID: actorID,
		Kind:    kind,
		Subject: subject,
		Detail:  detail,
	}
	l.log.Info("Audit", zap.String("kind", kind), zap.String("actor", actorID),
		zap.String("subject", subject), zap.String("detail", detail))

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.log.Error("Audit log is closed, entry dropped", zap.String("kind", kind))
		return
	}
	select {
	case l.entries <- entry:
	case <-time.After(l.enqueueTimeout):
		l.log.Error("Could not queue audit entry in time", zap.String("kind", kind))
	case <-ctx.Done():
		l.log.Error("Request ended before audit entry was queued", zap.String("kind", kind), zap.Error(ctx.Err()))
	}
}

func (l *AuditLog) Recent(ctx context.Context, limit int) ([]repository.AuditEntry, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("AuditLog::Recent"))
	defer span.Close()
	entries, err := l.store.ListAudit(ctx, limit)
	return entries, errors.ErrorfOrNil(err, "recent audit entries")
}

// Close stops accepting entries and waits until the queued ones are written.
func (l *AuditLog) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.entries)
	}
	l.mu.Unlock()
	<-l.done
}

func (l *AuditLog) runWorker() {
	defer close(l.done)
	globalCtx := context.Background()
	for entry := range l.entries {
		if err := withRetry(globalCtx, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
			defer cancel()
			return l.store.AppendAudit(ctx, entry)
		}, 3*times, l.retryDelay); err != nil {
			l.log.Error("Could not write audit entry", zap.String("kind", entry.Kind), zap.Error(err))
		}
	}
}

type tRetryCount int8

const times tRetryCount = 1

func withRetry(ctx context.Context, f func(context.Context) error, retryCount tRetryCount, retryDelay time.Duration) error {
	ctx, span := tracer.Open(ctx, tracer.Named("withRetry"))
	defer span.Close()
	var allErrors []error
	for ; retryCount > 0; retryCount-- {
		err := f(ctx)
		if err == nil {
			return nil
		}
		allErrors = append(allErrors, err)
		if retryCount > 1 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return errors.Join(append(allErrors, ctx.Err())...)
			}
		}
	}
	return errors.Join(allErrors...)
}
