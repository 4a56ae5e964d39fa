package server

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/sicko7947/wldstore"
)

type updateFieldRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type relationshipsRequest struct {
	PrerequisiteSteps []string `json:"prerequisiteSteps"`
	DependentSteps    []string `json:"dependentSteps"`
}

func (s *Server) handleGetWorkflowAnnotations(c fiber.Ctx) error {
	annotations, ok := s.stores.Annotations.GetWorkflowAnnotations(c.Context(), c.Params("workflowId"))
	if !ok {
		annotations = map[string]wldstore.StepAnnotation{}
	}
	return c.JSON(annotations)
}

func (s *Server) handleAnnotationStats(c fiber.Ctx) error {
	return c.JSON(s.stores.Annotations.Stats(c.Context(), c.Params("workflowId")))
}

func (s *Server) handleGetStepAnnotation(c fiber.Ctx) error {
	workflowID, stepID := c.Params("workflowId"), c.Params("stepId")
	a, ok := s.stores.Annotations.GetStepAnnotation(c.Context(), workflowID, stepID)
	if !ok {
		return notFound(c, fmt.Sprintf("no annotation for step %s of workflow %s", stepID, workflowID))
	}
	return c.JSON(a)
}

func (s *Server) handleSaveStepAnnotation(c fiber.Ctx) error {
	var a wldstore.StepAnnotation
	if err := c.Bind().JSON(&a); err != nil {
		return badRequest(c, "invalid request body")
	}

	workflowID, stepID := c.Params("workflowId"), c.Params("stepId")
	if err := s.stores.Annotations.SaveStepAnnotation(c.Context(), workflowID, stepID, a); err != nil {
		return s.writeError(c, err)
	}
	saved, _ := s.stores.Annotations.GetStepAnnotation(c.Context(), workflowID, stepID)
	return c.JSON(saved)
}

func (s *Server) handleUpdateAnnotationField(c fiber.Ctx) error {
	var req updateFieldRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Field == "" || len(req.Value) == 0 {
		return badRequest(c, "field and value are required")
	}

	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		return badRequest(c, "invalid value")
	}

	workflowID, stepID := c.Params("workflowId"), c.Params("stepId")
	if err := s.stores.Annotations.UpdateField(c.Context(), workflowID, stepID, req.Field, value); err != nil {
		return s.writeError(c, err)
	}
	saved, _ := s.stores.Annotations.GetStepAnnotation(c.Context(), workflowID, stepID)
	return c.JSON(saved)
}

func (s *Server) handleUpdateRelationships(c fiber.Ctx) error {
	var req relationshipsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	workflowID, stepID := c.Params("workflowId"), c.Params("stepId")
	err := s.stores.Annotations.UpdateRelationships(c.Context(), workflowID, stepID, req.PrerequisiteSteps, req.DependentSteps)
	if err != nil {
		return s.writeError(c, err)
	}
	saved, _ := s.stores.Annotations.GetStepAnnotation(c.Context(), workflowID, stepID)
	return c.JSON(saved)
}

func (s *Server) handleDeleteWorkflowAnnotations(c fiber.Ctx) error {
	workflowID := c.Params("workflowId")
	removed, err := s.stores.Annotations.DeleteWorkflowAnnotations(c.Context(), workflowID)
	if err != nil {
		return s.writeError(c, err)
	}
	if !removed {
		return notFound(c, fmt.Sprintf("no annotations for workflow %s", workflowID))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleDeleteStepAnnotation(c fiber.Ctx) error {
	workflowID, stepID := c.Params("workflowId"), c.Params("stepId")
	removed, err := s.stores.Annotations.DeleteStepAnnotation(c.Context(), workflowID, stepID)
	if err != nil {
		return s.writeError(c, err)
	}
	if !removed {
		return notFound(c, fmt.Sprintf("no annotation for step %s of workflow %s", stepID, workflowID))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
