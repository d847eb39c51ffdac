package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/player"
	"github.com/playmatatu/pinball/internal/session"
)

// ListElements returns the name, kind and script surface of every element
func ListElements(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		var out []gin.H
		s.Do(func(p *player.Player) error {
			for _, e := range p.Elements() {
				out = append(out, gin.H{
					"name":     e.Name(),
					"kind":     e.Kind(),
					"props":    e.Props(),
					"commands": e.Commands(),
				})
			}
			return nil
		})
		c.JSON(http.StatusOK, gin.H{"elements": out})
	}
}

// GetElement returns every property value of an element
func GetElement(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		name := c.Param("name")
		props := gin.H{}
		var kind string
		err := s.Do(func(p *player.Player) error {
			e, ok := p.Element(name)
			if !ok {
				return player.ErrUnknownElement
			}
			kind = e.Kind()
			for _, prop := range e.Props() {
				v, err := e.Get(prop)
				if err != nil {
					return err
				}
				props[prop] = v
			}
			return nil
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": name, "kind": kind, "props": props})
	}
}

// SetElementProps assigns several properties; it stops at the first failure
func SetElementProps(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		var req map[string]any
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected a JSON object of properties"})
			return
		}
		name := c.Param("name")
		err := s.Do(func(p *player.Player) error {
			for _, prop := range sortedKeys(req) {
				if err := p.Set(name, prop, req[prop]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": len(req)})
	}
}

// CallElement runs a script command such as RotateToEnd, PullBack or Kick
func CallElement(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Args []any `json:"args"`
		}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid arguments"})
				return
			}
		}
		v, err := mgr.Call(c.Param("id"), c.Param("name"), c.Param("command"), req.Args)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": v})
	}
}

// GetTableParams returns the global physics values of the table
func GetTableParams(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		params := gin.H{}
		s.Do(func(p *player.Player) error {
			for _, name := range player.TableParams() {
				v, _ := p.TableParam(name)
				params[name] = v
			}
			params["gravityVector"] = p.Gravity()
			return nil
		})
		c.JSON(http.StatusOK, params)
	}
}

// SetTableParams changes global physics values; they apply on the next tick
func SetTableParams(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, mgr)
		if !ok {
			return
		}
		var req map[string]float64
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected a JSON object of numbers"})
			return
		}
		err := s.Do(func(p *player.Player) error {
			for _, name := range sortedKeys(req) {
				if err := p.SetTableParam(name, req[name]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": len(req)})
	}
}
