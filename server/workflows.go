package server

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/sicko7947/wldstore"
)

type createWorkflowRequest struct {
	Title string                  `json:"title"`
	Steps []wldstore.WorkflowStep `json:"steps"`
}

type linkRequest struct {
	PrerequisiteID string `json:"prerequisiteId"`
	DependentID    string `json:"dependentId"`
}

type graphResponse struct {
	Order       []string             `json:"order"`
	Roots       []string             `json:"roots"`
	Asymmetries []wldstore.Asymmetry `json:"asymmetries"`
}

func (s *Server) handleListWorkflows(c fiber.Ctx) error {
	return c.JSON(s.stores.Workflows.GetAll(c.Context()))
}

func (s *Server) handleGetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	w, ok := s.stores.Workflows.GetByID(c.Context(), id)
	if !ok {
		return notFound(c, fmt.Sprintf("workflow %s not found", id))
	}
	return c.JSON(w)
}

func (s *Server) handleCreateWorkflow(c fiber.Ctx) error {
	var req createWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	w := s.stores.Workflows.CreateNew(req.Title)
	if req.Steps != nil {
		w.Steps = req.Steps
	}
	if err := s.stores.Workflows.Save(c.Context(), &w); err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

func (s *Server) handleSaveWorkflow(c fiber.Ctx) error {
	var w wldstore.Workflow
	if err := c.Bind().JSON(&w); err != nil {
		return badRequest(c, "invalid request body")
	}
	w.ID = c.Params("id")
	if err := s.stores.Workflows.Save(c.Context(), &w); err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(w)
}

func (s *Server) handleDeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	removed, err := s.stores.Workflows.Delete(c.Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	if !removed {
		return notFound(c, fmt.Sprintf("workflow %s not found", id))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleWorkflowGraph(c fiber.Ctx) error {
	id := c.Params("id")
	w, ok := s.stores.Workflows.GetByID(c.Context(), id)
	if !ok {
		return notFound(c, fmt.Sprintf("workflow %s not found", id))
	}

	g := wldstore.NewStepGraph(w.Steps)
	order, err := g.TopologicalOrder()
	if err != nil {
		return badRequest(c, err.Error())
	}
	asym := wldstore.FindAsymmetries(w.Steps)
	if asym == nil {
		asym = []wldstore.Asymmetry{}
	}
	return c.JSON(graphResponse{Order: order, Roots: g.Roots(), Asymmetries: asym})
}

func (s *Server) handleLinkSteps(c fiber.Ctx) error {
	return s.editLinks(c, func(w *wldstore.Workflow, req linkRequest) error {
		if err := wldstore.LinkSteps(w.Steps, req.PrerequisiteID, req.DependentID); err != nil {
			return err
		}
		if err := wldstore.NewStepGraph(w.Steps).Validate(); err != nil {
			return err
		}
		return nil
	})
}

func (s *Server) handleUnlinkSteps(c fiber.Ctx) error {
	return s.editLinks(c, func(w *wldstore.Workflow, req linkRequest) error {
		wldstore.UnlinkSteps(w.Steps, req.PrerequisiteID, req.DependentID)
		return nil
	})
}

// editLinks applies fn to a copy of the stored workflow and saves the result
func (s *Server) editLinks(c fiber.Ctx, fn func(*wldstore.Workflow, linkRequest) error) error {
	var req linkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	id := c.Params("id")
	w, ok := s.stores.Workflows.GetByID(c.Context(), id)
	if !ok {
		return notFound(c, fmt.Sprintf("workflow %s not found", id))
	}
	if err := fn(&w, req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := s.stores.Workflows.Save(c.Context(), &w); err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(w)
}
