package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-booking-backend/internal/auth"
	"github.com/nekogravitycat/car-booking-backend/internal/linking"
	"github.com/nekogravitycat/car-booking-backend/internal/pkg/response"
)

const maxWebhookBody = 1 << 20

type LinkTokenResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Handler struct {
	service       linking.Service
	channelSecret string
}

// NewHandler builds the handler. An empty channelSecret disables webhook
// signature checks.
func NewHandler(service linking.Service, channelSecret string) *Handler {
	return &Handler{service: service, channelSecret: channelSecret}
}

// IssueToken returns a fresh link code for the caller.
func (h *Handler) IssueToken(c *gin.Context) {
	t, err := h.service.Generate(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, LinkTokenResponse{Code: t.Code, ExpiresAt: t.ExpiresAt})
}

func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, linking.ErrBadPayload)
		return
	}
	if h.channelSecret != "" && !validSignature(h.channelSecret, body, c.GetHeader("X-Line-Signature")) {
		response.Error(c, linking.ErrBadSignature)
		return
	}

	var payload linking.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.Error(c, linking.ErrBadPayload)
		return
	}

	h.service.HandleEvents(c.Request.Context(), payload.Events)
	c.String(http.StatusOK, "OK")
}

func validSignature(secret string, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
