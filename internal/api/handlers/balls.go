package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/player"
	"github.com/playmatatu/pinball/internal/session"
	"github.com/playmatatu/pinball/internal/vmath"
)

func ballView(b *physics.Ball) gin.H {
	return gin.H{
		"id":     b.ID,
		"pos":    b.Pos,
		"vel":    b.Vel,
		"radius": b.Radius,
		"frozen": b.Frozen,
	}
}

// ListBalls returns every ball on the table
func ListBalls(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		out := []gin.H{}
		s.Do(func(p *player.Player) error {
			for _, b := range p.Balls() {
				out = append(out, ballView(b))
			}
			return nil
		})
		c.JSON(http.StatusOK, gin.H{"balls": out})
	}
}

type ballRequest struct {
	Pos    *vmath.Vertex3D `json:"pos"`
	Vel    *vmath.Vertex3D `json:"vel"`
	Radius float64         `json:"radius"`
	Mass   float64         `json:"mass"`
}

// CreateBall adds a ball; radius and mass default to the table's
func CreateBall(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		var req ballRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Pos == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pos required"})
			return
		}
		var view gin.H
		s.Do(func(p *player.Player) error {
			b := p.CreateBall(*req.Pos, req.Radius, req.Mass)
			if req.Vel != nil {
				b.Vel = *req.Vel
			}
			view = ballView(b)
			return nil
		})
		c.JSON(http.StatusCreated, view)
	}
}

// UpdateBall moves a ball or changes its velocity at the next safe point
func UpdateBall(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		id, ok := intParam(c, "ball")
		if !ok {
			return
		}
		var req ballRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ball update"})
			return
		}
		err := s.Do(func(p *player.Player) error {
			if req.Pos != nil {
				if err := p.MoveBall(id, *req.Pos); err != nil {
					return err
				}
			}
			if req.Vel != nil {
				return p.SetBallVelocity(id, *req.Vel)
			}
			return nil
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
}

// DeleteBall removes a ball from the table
func DeleteBall(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		id, ok := intParam(c, "ball")
		if !ok {
			return
		}
		err := s.Do(func(p *player.Player) error {
			return p.DestroyBallByID(id)
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"destroyed": id})
	}
}
