package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/sicko7947/wldstore"
)

// recordHandle is the backup surface shared by every record store
type recordHandle interface {
	Key() string
	CreateBackup(ctx context.Context) (string, error)
	ListBackups(ctx context.Context) ([]string, error)
	ApproximateSize(ctx context.Context) int
}

type storageResponse struct {
	Records map[string]int `json:"records"`
	Images  int            `json:"images"`
	Total   int            `json:"total"`
}

func (s *Server) records() map[string]recordHandle {
	return map[string]recordHandle{
		wldstore.KeyWorkflows:   s.stores.Workflows.Record(),
		wldstore.KeyAnnotations: s.stores.Annotations.Record(),
		wldstore.KeyPreferences: s.stores.Preferences.Record(),
	}
}

func (s *Server) handleMigrateLegacy(c fiber.Ctx) error {
	err := s.stores.Workflows.MigrateLegacy(c.Context())
	if errors.Is(err, wldstore.ErrNothingToMigrate) {
		return c.JSON(fiber.Map{"migrated": false, "legacyKey": s.stores.Workflows.LegacyKey()})
	}
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"migrated":  true,
		"legacyKey": s.stores.Workflows.LegacyKey(),
		"workflows": len(s.stores.Workflows.GetAll(c.Context())),
	})
}

func (s *Server) handleOptimizeImages(c fiber.Ctx) error {
	count, err := s.stores.Workflows.OptimizeImageStorage(c.Context())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"compressed": count})
}

func (s *Server) handleStorage(c fiber.Ctx) error {
	resp := storageResponse{Records: make(map[string]int)}
	for name, r := range s.records() {
		size := r.ApproximateSize(c.Context())
		resp.Records[name] = size
		resp.Total += size
	}
	resp.Images = s.stores.Workflows.TotalImageStorageSize(c.Context())
	return c.JSON(resp)
}

func (s *Server) handleCreateBackup(c fiber.Ctx) error {
	name := c.Params("record")
	r, ok := s.records()[name]
	if !ok {
		return notFound(c, fmt.Sprintf("unknown record %s", name))
	}
	key, err := r.CreateBackup(c.Context())
	if err != nil {
		return s.writeError(c, err)
	}
	if key == "" {
		return notFound(c, fmt.Sprintf("%s holds no value", r.Key()))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": key})
}

func (s *Server) handleListBackups(c fiber.Ctx) error {
	name := c.Params("record")
	r, ok := s.records()[name]
	if !ok {
		return notFound(c, fmt.Sprintf("unknown record %s", name))
	}
	keys, err := r.ListBackups(c.Context())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(keys)
}
