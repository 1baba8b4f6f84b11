package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"malinoise/internal/services"
)

type AdminHandler struct {
	admin services.AdminService
}

func NewAdminHandler(admin services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// @Summary      List users
// @Tags         Admin
// @Produce      json
// @Param        limit   query  int  false  "page size"
// @Param        offset  query  int  false  "page offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	callerID, role := getUserAndRole(c)
	log.Printf("[admin][users] list requested by id=%d role=%s", callerID, role)

	users, err := h.admin.ListUsers(limit, offset)
	if err != nil {
		log.Printf("[admin][users] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// @Summary      Dashboard stats
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats()
	if err != nil {
		log.Printf("[admin][stats] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// @Summary      Export user report as PDF
// @Tags         Admin
// @Produce      application/pdf
// @Success      200  {file}    file
// @Failure      403  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/admin/users/report [get]
func (h *AdminHandler) UsersReport(c *gin.Context) {
	email := ""
	if v, ok := c.Get("email"); ok {
		email, _ = v.(string)
	}

	report, err := h.admin.UserReport(email)
	if err != nil {
		log.Printf("[admin][report] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="users_report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", report)
}
