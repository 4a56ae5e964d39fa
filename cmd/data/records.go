package data

import (
	"context"
	"fmt"

	"github.com/sicko7947/wldstore"
)

type recordHandle interface {
	Key() string
	CreateBackup(ctx context.Context) (string, error)
	ListBackups(ctx context.Context) ([]string, error)
	ApproximateSize(ctx context.Context) int
}

func recordByName(name string) (recordHandle, error) {
	switch name {
	case wldstore.KeyWorkflows:
		return stores.Workflows.Record(), nil
	case wldstore.KeyAnnotations:
		return stores.Annotations.Record(), nil
	case wldstore.KeyPreferences:
		return stores.Preferences.Record(), nil
	default:
		return nil, fmt.Errorf("invalid record %s", name)
	}
}
