package handler

import (
	"dealership/pkg/pagination"
	"dealership/pkg/response"
	"dealership/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.UseJSONNames(v)
	}
}

// fail writes the error envelope for err.
func fail(c *gin.Context, err error) {
	status, body := response.FromError(err)
	c.JSON(status, body)
}

// badBody reports a request body that could not be decoded or failed its
// binding rules, field by field.
func badBody(c *gin.Context, err error) {
	fail(c, validation.FromError(err))
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, response.Success(status, data))
}

func page(c *gin.Context, status int, params pagination.Params, items interface{}, total int64) {
	c.JSON(status, response.Success(status, params.Wrap(items, total)))
}
