package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"malinoise/internal/models"
	"malinoise/internal/services"
)

type RegisterHandler struct {
	accounts services.AccountService
}

func NewRegisterHandler(accounts services.AccountService) *RegisterHandler {
	return &RegisterHandler{accounts: accounts}
}

// @Summary      Register
// @Description  Starts a registration: issues a verification code and emails it
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      models.RegisterRequest  true  "Registration data"
// @Success      201       {object}  map[string]interface{}
// @Failure      400       {object}  map[string]string
// @Failure      502       {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *RegisterHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.accounts.Register(req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAlreadyRegistered):
			c.JSON(http.StatusBadRequest, gin.H{"error": "This email is already registered"})
		case errors.Is(err, services.ErrPendingAlready):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":               "Email pending verification. Check your inbox or request a new code.",
				"pendingVerification": true,
			})
		case errors.Is(err, services.ErrResendThrottled):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try later"})
		case errors.Is(err, services.ErrNotifySendFailed):
			// код уже выдан и сохранён — клиенту остаётся resend
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "Could not send the verification email. Request a new code.",
				"canResend": true,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":             "Check your email for the verification code",
		"email":               email,
		"pendingVerification": true,
	})
}

// @Summary      Verify registration code
// @Description  Consumes the emailed code and activates the account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/auth/verify-code [post]
func (h *RegisterHandler) VerifyCode(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.accounts.VerifyRegistration(req.Email, req.Code)
	if err != nil {
		// клиенту нужны разные подсказки: expired → resend, mismatch → retry
		switch {
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "code expired, please resend"})
		case errors.Is(err, services.ErrTooManyAttempts):
			c.JSON(http.StatusBadRequest, gin.H{"error": "too many attempts, please resend"})
		case errors.Is(err, services.ErrCodeMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		case errors.Is(err, services.ErrCodeNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "verification code not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"token":   token,
		"user":    user,
	})
}

// @Summary      Resend verification code
// @Description  Invalidates the previous code and emails a new one
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /api/auth/resend-code [post]
func (h *RegisterHandler) ResendCode(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Kind  string `json:"kind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind := models.VerificationKind(req.Kind)
	if req.Kind == "" {
		kind = models.KindRegistration
	}

	if err := h.accounts.ResendCode(req.Email, kind); err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrCodeNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to resend"})
		case errors.Is(err, services.ErrResendThrottled):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try later"})
		case errors.Is(err, services.ErrNotifySendFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not send the email, try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resend failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "New code sent. Check your email."})
}
