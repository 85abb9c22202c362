package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type sourcingRequest struct {
	PublicacionID string `json:"publicacion_id" binding:"required"`
	DryRun        *bool  `json:"dry_run"`
}

// handleSourcing is the credit-gated sourcing endpoint. dry_run defaults to
// true so a client has to opt in to spending credits.
func (s *Server) handleSourcing(c *gin.Context) {
	var req sourcingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "publicacion_id is required",
		})
		return
	}

	postingID, err := uuid.Parse(req.PublicacionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "publicacion_id is not a valid id",
		})
		return
	}

	userID := currentUser(c)

	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	if dryRun {
		estimate, err := s.svc.DryRun(c.Request.Context(), userID, postingID)
		if err != nil {
			s.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"dry_run": true,
			"vacante": gin.H{
				"id":     estimate.PostingID,
				"titulo": estimate.Title,
			},
			"candidatos_a_analizar": estimate.CandidatesToAnalyze,
			"costo_creditos":        estimate.Cost,
			"creditos_suficientes":  estimate.SufficientCredits,
		})
		return
	}

	result, err := s.svc.Execute(c.Request.Context(), userID, postingID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"lote_sourcing":          result.BatchID,
		"candidatos_encontrados": result.CandidatesFound,
		"creditos_consumidos":    result.CreditsSpent,
		"origen_creditos":        result.Provenance,
		"mensaje": fmt.Sprintf("%d candidatos analizados y desbloqueados",
			result.CandidatesFound),
	})
}

func (s *Server) handleBatchResults(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid batch id",
		})
		return
	}

	batch, results, err := s.svc.BatchResults(c.Request.Context(), currentUser(c), batchID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"lote":       batch,
		"resultados": results,
	})
}

type resultTransitionRequest struct {
	Status string  `json:"status" binding:"required"`
	Note   *string `json:"note"`
}

func (s *Server) handleResultTransition(c *gin.Context) {
	resultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid result id",
		})
		return
	}

	var req resultTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "status is required",
		})
		return
	}

	result, err := s.svc.TransitionResult(c.Request.Context(), currentUser(c), resultID, req.Status, req.Note)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"resultado": result,
	})
}

func (s *Server) handleCandidateDetail(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid candidate id",
		})
		return
	}

	candidate, unlocked, err := s.svc.CandidateDetail(c.Request.Context(), currentUser(c), candidateID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"candidato":    candidate,
		"desbloqueado": unlocked,
	})
}
