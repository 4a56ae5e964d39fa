package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sicko7947/wldstore"
)

type modelRequest struct {
	Model string `json:"model"`
}

type recentRequest struct {
	WorkflowID string `json:"workflowId"`
}

func (s *Server) handleGetPreferences(c fiber.Ctx) error {
	return c.JSON(s.stores.Preferences.Get(c.Context()))
}

func (s *Server) handleUpdateTheme(c fiber.Ctx) error {
	var patch wldstore.ThemePatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "invalid request body")
	}
	return s.respondPreferences(c, s.stores.Preferences.UpdateTheme(c.Context(), patch))
}

func (s *Server) handleUpdateEditor(c fiber.Ctx) error {
	var patch wldstore.EditorPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "invalid request body")
	}
	return s.respondPreferences(c, s.stores.Preferences.UpdateEditor(c.Context(), patch))
}

func (s *Server) handleUpdateExport(c fiber.Ctx) error {
	var patch wldstore.ExportPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "invalid request body")
	}
	return s.respondPreferences(c, s.stores.Preferences.UpdateExport(c.Context(), patch))
}

func (s *Server) handleSetLastUsedModel(c fiber.Ctx) error {
	var req modelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return s.respondPreferences(c, s.stores.Preferences.SetLastUsedModel(c.Context(), req.Model))
}

func (s *Server) handleAddRecentWorkflow(c fiber.Ctx) error {
	var req recentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return s.respondPreferences(c, s.stores.Preferences.AddRecentWorkflow(c.Context(), req.WorkflowID))
}

func (s *Server) handleResetPreferences(c fiber.Ctx) error {
	return s.respondPreferences(c, s.stores.Preferences.ResetToDefaults(c.Context()))
}

// respondPreferences writes err, or the preferences as they are now stored
func (s *Server) respondPreferences(c fiber.Ctx, err error) error {
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(s.stores.Preferences.Get(c.Context()))
}
