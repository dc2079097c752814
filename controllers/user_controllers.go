package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/meucardapio/pedidos-app/models"
	"github.com/meucardapio/pedidos-app/utils"
)

const msgInvalidCredentials = "Credenciais inválidas."

// UserController handles staff authentication for the admin dashboard.
type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// Login exchanges staff credentials for a session token.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, "validation", msgInvalidCredentials)
		return
	}

	var user models.User
	if err := uc.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusUnauthorized, "auth", msgInvalidCredentials)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondErrorCode(c, http.StatusUnauthorized, "auth", msgInvalidCredentials)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("failed to generate session token")
		utils.RespondErrorCode(c, http.StatusInternalServerError, "unknown", msgInvalidCredentials)
		return
	}

	utils.InfoLogger.Printf("staff login: %s (role=%s)", user.Email, user.Role)
	utils.RespondOK(c, http.StatusOK, gin.H{"token": token, "role": user.Role})
}
