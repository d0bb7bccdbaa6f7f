package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type signupInput struct {
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
	Username  string `form:"username"`
	Email     string `form:"email" binding:"omitempty,email"`
	Password  string `form:"password1"`
	Password2 string `form:"password2" binding:"eqfield=Password"`
}

type loginInput struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

// bindingMessages maps form binding failures onto field messages.
var bindingMessages = map[string][2]string{
	"Email":     {"email", "Введите правильный адрес электронной почты."},
	"Password2": {"password2", "Введенные пароли не совпадают."},
	"Username":  {"username", "Обязательное поле."},
	"Password":  {"password", "Обязательное поле."},
}

func bindingErrors(err error) *models.ValidationError {
	verr := models.NewValidationError()
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if m, ok := bindingMessages[fe.Field()]; ok {
				verr.Add(m[0], m[1])
			}
		}
	}
	if len(verr.Fields) == 0 {
		verr.Add("form", "Некорректные данные формы.")
	}
	return verr
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	Render(c, http.StatusOK, "auth/signup.html", gin.H{
		"Title":  "Зарегистрироваться",
		"Form":   signupInput{},
		"Errors": map[string]string{},
	})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var input signupInput
	var verr *models.ValidationError

	err := c.ShouldBind(&input)
	if err != nil {
		verr = bindingErrors(err)
		err = verr
	} else {
		var user *models.User
		user, err = h.users.Register(c.Request.Context(), services.SignupForm{
			Username:  input.Username,
			Password:  input.Password,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
		})
		if err == nil {
			if err := middleware.Login(c, user); err != nil {
				log.Printf("[AuthHandler] Failed to save session: %v", err)
			}
			log.Printf("[AuthHandler] New user %s", user.Username)
			c.Redirect(http.StatusFound, "/")
			return
		}
	}

	if errors.As(err, &verr) {
		Render(c, http.StatusBadRequest, "auth/signup.html", gin.H{
			"Title":  "Зарегистрироваться",
			"Form":   input,
			"Errors": verr.Fields,
		})
		return
	}
	handleError(c, err)
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Title": "Войти",
		"Next":  c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBind(&input); err != nil {
		h.loginFailed(c, input)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Username, input.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		h.loginFailed(c, input)
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}

	if err := middleware.Login(c, user); err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, safeNext(input.Next))
}

func (h *AuthHandler) loginFailed(c *gin.Context, input loginInput) {
	Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{
		"Title":    "Войти",
		"Error":    "Пожалуйста, введите правильные имя пользователя и пароль.",
		"Username": input.Username,
		"Next":     input.Next,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		log.Printf("[AuthHandler] Failed to clear session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

// safeNext only allows redirects to local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
