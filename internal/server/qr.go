package server

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 320

// joinURL is the link a QR code points at: the public site with the room
// code prefilled.
func (s *Server) joinURL(code string) string {
	return s.cfg.PublicURL + "/?code=" + url.QueryEscape(code)
}

func (s *Server) handleRoomQR(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	snap, err := s.engine.Snapshot(c.Request.Context(), roomID, "")
	if err != nil {
		s.writeError(c, err)
		return
	}
	png, err := qrcode.Encode(s.joinURL(snap.Room.Code), qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("qr generation failed", zap.String("room_id", roomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
