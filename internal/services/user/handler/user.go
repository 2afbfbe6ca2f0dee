package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lewa-workshop/config"
	"lewa-workshop/internal/database/models"
	"lewa-workshop/internal/utils"
)

type UserHandler struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewUserHandler(db *gorm.DB, jwtSecret []byte, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{
		db:        db,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (h *UserHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *UserHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	Role      string `json:"role" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var role models.Role
	if err := h.db.Where("role_name = ?", req.Role).First(&role).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.error(c, http.StatusBadRequest, "Unknown role: "+req.Role)
			return
		}
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.LogError(config.GetLogger(), "user", "Register", "password hashing failed", nil, err)
		h.error(c, http.StatusInternalServerError, "error creating user")
		return
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		RoleID:    role.ID,
		IsActive:  true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.error(c, http.StatusConflict, "Username or email already taken")
		return
	}
	user.Role = role

	h.success(c, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var user models.User
	if err := h.db.Preload("Role").Where("username = ?", req.Username).First(&user).Error; err != nil {
		h.error(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !user.IsActive {
		h.error(c, http.StatusUnauthorized, "Account is inactive")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		h.error(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := utils.GenerateToken(h.jwtSecret, user.ID, user.Username, user.Role.RoleName, h.tokenTTL)
	if err != nil {
		config.LogError(config.GetLogger(), "user", "Login", "token generation failed", nil, err)
		h.error(c, http.StatusInternalServerError, "error generating token")
		return
	}

	now := time.Now()
	h.db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", now)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":      token,
			"expires_at": expiresAt,
			"user":       user,
		},
	})
}

func (h *UserHandler) ListMechanics(c *gin.Context) {
	var mechanics []models.User
	err := h.db.Preload("Role").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.role_name = ? AND users.is_active = ?", models.RoleMechanic, true).
		Find(&mechanics).Error
	if err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}
	h.success(c, mechanics)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	var user models.User
	if err := h.db.Preload("Role").First(&user, c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.error(c, http.StatusNotFound, "User not found")
			return
		}
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}
	h.success(c, user)
}
