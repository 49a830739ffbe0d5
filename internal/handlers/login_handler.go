package handlers

import (
	"net/http"

	"stock-ledger/internal/auth"
	"stock-ledger/internal/database"
	"stock-ledger/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=admin staff"`
}

func Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Find User in DB
	var user models.User
	if err := database.DB.WithContext(c.Request.Context()).Where("username = ?", input.Username).First(&user).Error; err != nil {
		abortWith(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 3. Verify Password (Bcrypt)
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		abortWith(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 4. Generate JWT Token
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
	})
}

// Register is only routed when ALLOW_REGISTRATION=true
func Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		fail(c, err)
		return
	}

	role := input.Role
	if role == "" {
		role = auth.RoleStaff
	}
	user := models.User{
		Username:     input.Username,
		PasswordHash: hash,
		Role:         role,
	}

	if err := database.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			abortWith(c, http.StatusConflict, "Username already taken")
			return
		}
		fail(c, err)
		return
	}
	zap.L().Info("user registered", zap.String("username", user.Username), zap.String("role", role))

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "id": user.ID})
}
