package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDaily(c *gin.Context) {
	report, err := s.engine.RunDaily(c.Request.Context(), s.clock.Now())
	if err != nil {
		s.logger.Error("daily pass failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleNotifications(c *gin.Context) {
	report, err := s.engine.RunNotifications(c.Request.Context(), s.clock.Now())
	if err != nil {
		s.logger.Error("notification pass failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleTaskStatus(c *gin.Context) {
	status, err := s.engine.Status(c.Request.Context(), c.Param("id"), s.clock.Now())
	if err != nil {
		s.writeLookupError(c, "task", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleUserTasks(c *gin.Context) {
	boards, err := parseBoards(c.QueryArray("board"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	statuses, err := s.engine.UserStatuses(c.Request.Context(), c.Param("id"), boards, s.clock.Now())
	if err != nil {
		s.writeLookupError(c, "user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": statuses, "count": len(statuses)})
}

// parseBoards accepts repeated or comma separated board names.
func parseBoards(raw []string) ([]model.Board, error) {
	var out []model.Board
	for _, item := range raw {
		for _, name := range strings.Split(item, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			b, err := model.ParseBoard(name)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Server) writeLookupError(c *gin.Context, what string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
		return
	}
	s.logger.Error("lookup failed", "what", what, "id", c.Param("id"), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
