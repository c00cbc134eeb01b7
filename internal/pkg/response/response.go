package response

import (
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type successBody struct {
	Data interface{} `json:"data"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, successBody{Data: data})
}

func Error(c *gin.Context, status int, code string, message string) {
	c.JSON(status, errorBody{Code: code, Error: message})
}
