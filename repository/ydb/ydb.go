package ydb

import (
	"context"
	"fmt"
	"os"
	"strings"

	"mikhailche/lurelog/lib/tracer.v2"

	"github.com/ydb-platform/ydb-go-sdk/v3"
	yc "github.com/ydb-platform/ydb-go-yc"
	"go.uber.org/zap"
)

func credentials(dsn string, log *zap.Logger) []ydb.Option {
	if ydbSaKey := os.Getenv("YDB_SA_KEY"); len(ydbSaKey) > 0 {
		log.Info("Found YDB key in environment")
		return []ydb.Option{yc.WithInternalCA(), ydb.WithAccessTokenCredentials(ydbSaKey)}
	}
	if strings.HasPrefix(dsn, "grpc://") {
		// plaintext endpoint, local YDB in docker
		return []ydb.Option{ydb.WithAnonymousCredentials()}
	}
	return []ydb.Option{yc.WithInternalCA(), yc.WithMetadataCredentials()}
}

func NewYDBDriver(ctx context.Context, dsn string, log *zap.Logger) (*ydb.Driver, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("NewYDBDriver"))
	defer span.Close()
	defer log.Info("Finished opening YDB connection")
	log.Info("Opening YDB connection", zap.String("dsn", dsn))
	ydbd, err := ydb.Open(ctx, dsn, credentials(dsn, log)...)
	if err != nil {
		return nil, fmt.Errorf("newYDBDriver: %w", err)
	}
	return ydbd, nil
}
